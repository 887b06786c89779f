package domain

import (
	"fmt"
	"time"
)

// TransactionState is the lifecycle position of a reservation/borrow record.
type TransactionState string

const (
	TransactionStatePending   TransactionState = "pending"
	TransactionStateBorrowed  TransactionState = "borrowed"
	TransactionStateReturned  TransactionState = "returned"
	TransactionStateCancelled TransactionState = "cancelled"
)

// Loan is the payload of a confirmed borrow.
type Loan struct {
	StaffID    int32     `json:"staff_id"`
	BorrowDate time.Time `json:"borrow_date"`
	DueDate    time.Time `json:"due_date"`
}

// Return is the payload of a completed borrow.
type Return struct {
	StaffID    int32     `json:"return_staff_id"`
	ReturnDate time.Time `json:"return_date"`
	FineAmount int32     `json:"fine_amount"`
}

// Transaction is a single reservation/borrow record. Which payload is set
// depends on State: Pending has none, Borrowed has Loan, Returned has Loan
// and Return, Cancelled has CancelledAt.
type Transaction struct {
	ID          int32            `json:"id"`
	MemberID    int32            `json:"member_id"`
	BookID      int32            `json:"book_id"`
	BookCopyID  int32            `json:"book_copy_id"`
	State       TransactionState `json:"state"`
	CreatedAt   time.Time        `json:"created_at"`
	Loan        *Loan            `json:"loan,omitempty"`
	Return      *Return          `json:"return,omitempty"`
	CancelledAt *time.Time       `json:"cancelled_at,omitempty"`
	Notes       string           `json:"notes"`
}

// NewReservation builds a pending record for a claimed copy.
func NewReservation(memberID, bookID, copyID int32, now time.Time) *Transaction {
	return &Transaction{
		MemberID:   memberID,
		BookID:     bookID,
		BookCopyID: copyID,
		State:      TransactionStatePending,
		CreatedAt:  now.UTC(),
	}
}

// Validate checks that the payload matches the state.
func (t *Transaction) Validate() error {
	switch t.State {
	case TransactionStatePending:
		if t.Loan != nil || t.Return != nil || t.CancelledAt != nil {
			return fmt.Errorf("%w: pending transaction %d carries loan, return or cancel data", ErrStateConflict, t.ID)
		}
	case TransactionStateBorrowed:
		if t.Loan == nil || t.Return != nil || t.CancelledAt != nil {
			return fmt.Errorf("%w: borrowed transaction %d must carry only loan data", ErrStateConflict, t.ID)
		}
	case TransactionStateReturned:
		if t.Loan == nil || t.Return == nil || t.CancelledAt != nil {
			return fmt.Errorf("%w: returned transaction %d must carry loan and return data", ErrStateConflict, t.ID)
		}
	case TransactionStateCancelled:
		if t.CancelledAt == nil || t.Loan != nil || t.Return != nil {
			return fmt.Errorf("%w: cancelled transaction %d must carry only a cancel time", ErrStateConflict, t.ID)
		}
	default:
		return fmt.Errorf("%w: transaction %d has unknown state %q", ErrStateConflict, t.ID, t.State)
	}
	return nil
}

// ExpiresAt is when a pending reservation lapses.
func (t *Transaction) ExpiresAt(ttl time.Duration) time.Time {
	return t.CreatedAt.Add(ttl)
}

// IsExpired reports whether a pending reservation has lapsed at now.
func (t *Transaction) IsExpired(now time.Time, ttl time.Duration) bool {
	return t.State == TransactionStatePending && !now.Before(t.ExpiresAt(ttl))
}

// Confirm turns a pending reservation into a loan due borrowDays after now.
func (t *Transaction) Confirm(staffID int32, now time.Time, borrowDays int) error {
	switch t.State {
	case TransactionStatePending:
	case TransactionStateBorrowed, TransactionStateReturned:
		return fmt.Errorf("%w: transaction %d is not a pending reservation", ErrNotFound, t.ID)
	case TransactionStateCancelled:
		return fmt.Errorf("%w: reservation %d was cancelled", ErrNotFound, t.ID)
	default:
		return t.Validate()
	}

	now = now.UTC()
	t.State = TransactionStateBorrowed
	t.Loan = &Loan{
		StaffID:    staffID,
		BorrowDate: now,
		DueDate:    now.Add(time.Duration(borrowDays) * 24 * time.Hour),
	}
	return nil
}

// Cancel soft-deletes a pending reservation.
func (t *Transaction) Cancel(now time.Time) error {
	switch t.State {
	case TransactionStatePending:
	case TransactionStateBorrowed, TransactionStateReturned, TransactionStateCancelled:
		return fmt.Errorf("%w: transaction %d is not a pending reservation", ErrNotFound, t.ID)
	default:
		return t.Validate()
	}

	cancelledAt := now.UTC()
	t.State = TransactionStateCancelled
	t.CancelledAt = &cancelledAt
	return nil
}

// MarkReturned closes an active loan.
func (t *Transaction) MarkReturned(staffID int32, now time.Time, fine int32) error {
	switch t.State {
	case TransactionStateBorrowed:
	case TransactionStateReturned:
		return fmt.Errorf("%w: transaction %d", ErrAlreadyReturned, t.ID)
	case TransactionStatePending, TransactionStateCancelled:
		return fmt.Errorf("%w: transaction %d is not an active loan", ErrNotFound, t.ID)
	default:
		return t.Validate()
	}

	t.State = TransactionStateReturned
	t.Return = &Return{
		StaffID:    staffID,
		ReturnDate: now.UTC(),
		FineAmount: fine,
	}
	return nil
}

// IsOpen reports whether the record still holds its copy.
func (t *Transaction) IsOpen() bool {
	return t.State == TransactionStatePending || t.State == TransactionStateBorrowed
}
