package service

import (
	"context"
	"time"

	"libraryhub-backend/internal/config"
	"libraryhub-backend/internal/domain"
)

type ReservationService interface {
	CreateReservation(ctx context.Context, memberID, bookID int32) (*domain.Reservation, error)
	ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error)
	// CancelReservation cancels a pending reservation. When memberID is set
	// the reservation must belong to that member.
	CancelReservation(ctx context.Context, transactionID int32, memberID *int32) error
	SweepExpired(ctx context.Context) (*domain.SweepReport, error)
}

type BorrowService interface {
	// ConfirmBorrow turns a pending reservation into a loan. borrowDays 0
	// selects the default loan length.
	ConfirmBorrow(ctx context.Context, transactionID, staffID int32, borrowDays int) (*domain.Transaction, error)
	// RecordReturn closes a loan. A nil fineAmount charges the computed fine.
	RecordReturn(ctx context.Context, transactionID, staffID int32, fineAmount *int32) (*domain.Transaction, error)
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.LoanView, int32, error)
}

// Policy holds the library rules the ledgers enforce.
type Policy struct {
	ReservationTTL    time.Duration
	FineRatePerDay    int32
	DefaultBorrowDays int
	MinBorrowDays     int
	MaxBorrowDays     int
}

func DefaultPolicy() Policy {
	return Policy{
		ReservationTTL:    24 * time.Hour,
		FineRatePerDay:    5,
		DefaultBorrowDays: 14,
		MinBorrowDays:     1,
		MaxBorrowDays:     30,
	}
}

func PolicyFromConfig(cfg *config.LibraryConfig) Policy {
	return Policy{
		ReservationTTL:    time.Duration(cfg.ReservationTTLHours) * time.Hour,
		FineRatePerDay:    int32(cfg.FineRatePerDay),
		DefaultBorrowDays: cfg.DefaultBorrowDays,
		MinBorrowDays:     cfg.MinBorrowDays,
		MaxBorrowDays:     cfg.MaxBorrowDays,
	}
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// NormalizePage applies the listing defaults: page 1, 10 per page, at most 100.
func NormalizePage(page, limit int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
