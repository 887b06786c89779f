package repository

import (
	"context"
	"time"

	"libraryhub-backend/internal/domain"
)

// BookRepository is the read side of the catalog. Soft-deleted books are
// reported as domain.ErrNotFound.
type BookRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Book, error)
}

type CopyRepository interface {
	// ClaimAvailable moves the lowest-id available copy of a book to
	// reserved and returns it, or domain.ErrNoCopyAvailable.
	ClaimAvailable(ctx context.Context, bookID int32, now time.Time) (*domain.BookCopy, error)
	// TransitionStatus changes a copy's status only if it is currently
	// in from; otherwise it returns domain.ErrStateConflict.
	TransitionStatus(ctx context.Context, copyID int32, from, to domain.CopyStatus, now time.Time) error
}

type MemberRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Member, error)
	// GetForUpdate is GetByID plus a row lock held until the unit of work ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Member, error)
}

type StaffRepository interface {
	Exists(ctx context.Context, id int32) (bool, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int32) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, id int32) (*domain.Transaction, error)
	// Update persists the state and payload of tx.
	Update(ctx context.Context, tx *domain.Transaction) error
	CountOpenByMember(ctx context.Context, memberID int32) (int32, error)
	HasPendingReservation(ctx context.Context, memberID, bookID int32) (bool, error)
	ListPending(ctx context.Context, filter domain.ReservationFilter) ([]domain.Transaction, int32, error)
	// ListExpiredPending returns pending reservations created at or before cutoff.
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error)
	ListOpenLoans(ctx context.Context, filter domain.LoanFilter, now time.Time) ([]domain.Transaction, int32, error)
}

// Repositories groups the repositories bound to one connection or unit of work.
type Repositories struct {
	Books        BookRepository
	Copies       CopyRepository
	Members      MemberRepository
	Staff        StaffRepository
	Transactions TransactionRepository
}

// Transactor runs fn inside a single all-or-nothing unit of work. If fn
// returns an error every write made through repos is rolled back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is what the services depend on: plain repositories for reads and a
// Transactor for state transitions.
type Store interface {
	Transactor
	Repos() Repositories
	Ping(ctx context.Context) error
}
