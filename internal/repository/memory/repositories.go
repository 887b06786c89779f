package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"libraryhub-backend/internal/domain"
)

type bookRepository struct{ base }

func (r bookRepository) GetByID(ctx context.Context, id int32) (*domain.Book, error) {
	d, done := r.enter()
	defer done()
	b, ok := d.books[id]
	if !ok || b.DeletedAt != nil {
		return nil, fmt.Errorf("%w: book %d", domain.ErrNotFound, id)
	}
	return &b, nil
}

type copyRepository struct{ base }

func (r copyRepository) ClaimAvailable(ctx context.Context, bookID int32, now time.Time) (*domain.BookCopy, error) {
	d, done := r.enter()
	defer done()

	var claimed *domain.BookCopy
	for id, c := range d.copies {
		if c.BookID != bookID || c.Status != domain.CopyStatusAvailable || c.DeletedAt != nil {
			continue
		}
		if claimed == nil || id < claimed.ID {
			c := c
			claimed = &c
		}
	}
	if claimed == nil {
		return nil, fmt.Errorf("%w: book %d", domain.ErrNoCopyAvailable, bookID)
	}
	claimed.Status = domain.CopyStatusReserved
	claimed.UpdatedAt = now
	d.copies[claimed.ID] = *claimed
	return claimed, nil
}

func (r copyRepository) TransitionStatus(ctx context.Context, copyID int32, from, to domain.CopyStatus, now time.Time) error {
	d, done := r.enter()
	defer done()
	c, ok := d.copies[copyID]
	if !ok || c.Status != from {
		return fmt.Errorf("%w: copy %d is not %s", domain.ErrStateConflict, copyID, from)
	}
	c.Status = to
	c.UpdatedAt = now
	d.copies[copyID] = c
	return nil
}

type memberRepository struct{ base }

func (r memberRepository) GetByID(ctx context.Context, id int32) (*domain.Member, error) {
	d, done := r.enter()
	defer done()
	m, ok := d.members[id]
	if !ok || m.DeletedAt != nil {
		return nil, fmt.Errorf("%w: member %d", domain.ErrNotFound, id)
	}
	return &m, nil
}

// GetForUpdate needs no row lock: a unit of work already owns the store.
func (r memberRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Member, error) {
	return r.GetByID(ctx, id)
}

type staffRepository struct{ base }

func (r staffRepository) Exists(ctx context.Context, id int32) (bool, error) {
	d, done := r.enter()
	defer done()
	st, ok := d.staff[id]
	return ok && st.DeletedAt == nil, nil
}

type transactionRepository struct{ base }

func (r transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	d, done := r.enter()
	defer done()

	for _, existing := range d.transactions {
		if existing.BookCopyID == t.BookCopyID && existing.IsOpen() {
			return fmt.Errorf("%w: copy %d already has an open record", domain.ErrNoCopyAvailable, t.BookCopyID)
		}
	}
	t.ID = d.assignID("transactions", 0)
	d.transactions[t.ID] = cloneTransaction(*t)
	return nil
}

func (r transactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	d, done := r.enter()
	defer done()
	t, ok := d.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
	}
	t = cloneTransaction(t)
	return &t, nil
}

func (r transactionRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r transactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	d, done := r.enter()
	defer done()
	if _, ok := d.transactions[t.ID]; !ok {
		return fmt.Errorf("%w: transaction %d", domain.ErrNotFound, t.ID)
	}
	d.transactions[t.ID] = cloneTransaction(*t)
	return nil
}

func (r transactionRepository) CountOpenByMember(ctx context.Context, memberID int32) (int32, error) {
	d, done := r.enter()
	defer done()
	var count int32
	for _, t := range d.transactions {
		if t.MemberID == memberID && t.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (r transactionRepository) HasPendingReservation(ctx context.Context, memberID, bookID int32) (bool, error) {
	d, done := r.enter()
	defer done()
	for _, t := range d.transactions {
		if t.MemberID == memberID && t.BookID == bookID && t.State == domain.TransactionStatePending {
			return true, nil
		}
	}
	return false, nil
}

func (r transactionRepository) ListPending(ctx context.Context, filter domain.ReservationFilter) ([]domain.Transaction, int32, error) {
	txs := r.collect(func(t domain.Transaction) bool {
		if t.State != domain.TransactionStatePending {
			return false
		}
		return filter.MemberID == nil || t.MemberID == *filter.MemberID
	})
	sort.Slice(txs, func(i, j int) bool {
		return timeOrID(txs[j].CreatedAt, txs[i].CreatedAt, txs[j].ID, txs[i].ID)
	})
	return paginate(txs, filter.Page, filter.Limit), int32(len(txs)), nil
}

func (r transactionRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	txs := r.collect(func(t domain.Transaction) bool {
		return t.State == domain.TransactionStatePending && !t.CreatedAt.After(cutoff)
	})
	sort.Slice(txs, func(i, j int) bool {
		return timeOrID(txs[i].CreatedAt, txs[j].CreatedAt, txs[i].ID, txs[j].ID)
	})
	return txs, nil
}

func (r transactionRepository) ListOpenLoans(ctx context.Context, filter domain.LoanFilter, now time.Time) ([]domain.Transaction, int32, error) {
	txs := r.collect(func(t domain.Transaction) bool {
		if t.State != domain.TransactionStateBorrowed {
			return false
		}
		if filter.MemberID != nil && t.MemberID != *filter.MemberID {
			return false
		}
		switch filter.Status {
		case domain.LoanStatusOverdue:
			return now.After(t.Loan.DueDate)
		case domain.LoanStatusBorrowed:
			return !now.After(t.Loan.DueDate)
		}
		return true
	})
	sort.Slice(txs, func(i, j int) bool {
		return timeOrID(txs[i].Loan.DueDate, txs[j].Loan.DueDate, txs[i].ID, txs[j].ID)
	})
	return paginate(txs, filter.Page, filter.Limit), int32(len(txs)), nil
}

func (r transactionRepository) collect(keep func(domain.Transaction) bool) []domain.Transaction {
	d, done := r.enter()
	defer done()
	out := []domain.Transaction{}
	for _, t := range d.transactions {
		if keep(t) {
			out = append(out, cloneTransaction(t))
		}
	}
	return out
}
