package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive  ReservationStatus = "active"
	ReservationStatusExpired ReservationStatus = "expired"
)

type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "borrowed"
	LoanStatusOverdue  LoanStatus = "overdue"
)

// Reservation is a pending transaction with its read-time expiry fields.
type Reservation struct {
	Transaction
	ExpiresAt        time.Time         `json:"expires_at"`
	MinutesElapsed   int64             `json:"minutes_elapsed"`
	MinutesRemaining int64             `json:"minutes_remaining"`
	Status           ReservationStatus `json:"status"`
}

// LoanView is an open borrow with its read-time classification.
type LoanView struct {
	Transaction
	Status        LoanStatus `json:"status"`
	OverdueDays   int32      `json:"overdue_days"`
	ProjectedFine int32      `json:"projected_fine"`
}

type ReservationFilter struct {
	MemberID *int32
	Page     int32
	Limit    int32
}

type LoanFilter struct {
	MemberID *int32
	Status   LoanStatus
	Page     int32
	Limit    int32
}

// SweptReservation describes one reservation cancelled by a sweep.
type SweptReservation struct {
	TransactionID int32     `json:"borrow_transaction_id"`
	MemberID      int32     `json:"user_id"`
	BookID        int32     `json:"book_id"`
	BookCopyID    int32     `json:"book_copy_id"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiredAt     time.Time `json:"expired_at"`
}

type SweepReport struct {
	CleanedCount int                `json:"cleaned_count"`
	Cleaned      []SweptReservation `json:"cleaned_reservations"`
}
