package utils

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// DaysLate counts started 24-hour periods between due and asOf.
// It is 0 when asOf is not after due. Both instants are compared in UTC,
// so the result never depends on a display zone.
func DaysLate(due, asOf time.Time) int32 {
	late := asOf.Sub(due)
	if late <= 0 {
		return 0
	}
	days := late / day
	if late%day != 0 {
		days++
	}
	return int32(days)
}

// ComputeFine returns DaysLate(due, asOf) * ratePerDay.
func ComputeFine(due, asOf time.Time, ratePerDay int32) int32 {
	return DaysLate(due, asOf) * ratePerDay
}

// DisplayZone returns the fixed-offset zone used when presenting timestamps.
func DisplayZone(offsetHours int) *time.Location {
	if offsetHours == 0 {
		return time.UTC
	}
	sign := "+"
	if offsetHours < 0 {
		sign = "-"
	}
	abs := offsetHours
	if abs < 0 {
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%d", sign, abs), offsetHours*int(time.Hour/time.Second))
}

// ToDisplayTime expresses t in the display zone. The instant is unchanged,
// so applying it more than once has no further effect.
func ToDisplayTime(t time.Time, zone *time.Location) time.Time {
	return t.In(zone)
}

// MinutesBetween returns whole minutes from start to end, never negative.
func MinutesBetween(start, end time.Time) int64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Minute)
}
