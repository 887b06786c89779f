package service

import (
	"context"
	"fmt"
	"time"

	"libraryhub-backend/internal/clock"
	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/logger"
	"libraryhub-backend/internal/repository"
	"libraryhub-backend/internal/utils"
)

type borrowService struct {
	store  repository.Store
	clock  clock.Clock
	policy Policy
}

func NewBorrowService(store repository.Store, clk clock.Clock, policy Policy) BorrowService {
	return &borrowService{
		store:  store,
		clock:  clk,
		policy: policy,
	}
}

func (s *borrowService) ConfirmBorrow(ctx context.Context, transactionID, staffID int32, borrowDays int) (*domain.Transaction, error) {
	logger.EnterMethod("borrowService.ConfirmBorrow", "transactionID", transactionID, "staffID", staffID, "borrowDays", borrowDays)

	if borrowDays == 0 {
		borrowDays = s.policy.DefaultBorrowDays
	}
	if borrowDays < s.policy.MinBorrowDays || borrowDays > s.policy.MaxBorrowDays {
		err := fmt.Errorf("%w: borrow_days must be between %d and %d", domain.ErrValidation, s.policy.MinBorrowDays, s.policy.MaxBorrowDays)
		logger.ExitMethodWithError("borrowService.ConfirmBorrow", err, "transactionID", transactionID)
		return nil, err
	}

	now := s.clock.Now()
	var confirmed *domain.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		t, err := repos.Transactions.GetForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.IsExpired(now, s.policy.ReservationTTL) {
			return fmt.Errorf("%w: reservation %d lapsed at %s", domain.ErrReservationExpired, t.ID, t.ExpiresAt(s.policy.ReservationTTL).Format(time.RFC3339))
		}
		if err := s.requireStaff(ctx, repos, staffID); err != nil {
			return err
		}
		if err := t.Confirm(staffID, now, borrowDays); err != nil {
			return err
		}
		if err := repos.Transactions.Update(ctx, t); err != nil {
			return err
		}
		if err := repos.Copies.TransitionStatus(ctx, t.BookCopyID, domain.CopyStatusReserved, domain.CopyStatusBorrowed, now); err != nil {
			return err
		}
		confirmed = t
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("borrowService.ConfirmBorrow", err, "transactionID", transactionID)
		return nil, err
	}

	logger.Info("Borrow confirmed", "transactionID", transactionID, "staffID", staffID, "dueDate", confirmed.Loan.DueDate)
	logger.ExitMethod("borrowService.ConfirmBorrow", "transactionID", transactionID)
	return confirmed, nil
}

func (s *borrowService) RecordReturn(ctx context.Context, transactionID, staffID int32, fineAmount *int32) (*domain.Transaction, error) {
	logger.EnterMethod("borrowService.RecordReturn", "transactionID", transactionID, "staffID", staffID)

	if fineAmount != nil && *fineAmount < 0 {
		err := fmt.Errorf("%w: fine_amount must not be negative", domain.ErrValidation)
		logger.ExitMethodWithError("borrowService.RecordReturn", err, "transactionID", transactionID)
		return nil, err
	}

	now := s.clock.Now()
	var returned *domain.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		t, err := repos.Transactions.GetForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		var fine int32
		switch {
		case fineAmount != nil:
			fine = *fineAmount
		case t.Loan != nil:
			fine = utils.ComputeFine(t.Loan.DueDate, now, s.policy.FineRatePerDay)
		}
		if err := t.MarkReturned(staffID, now, fine); err != nil {
			return err
		}
		if err := s.requireStaff(ctx, repos, staffID); err != nil {
			return err
		}

		if err := repos.Transactions.Update(ctx, t); err != nil {
			return err
		}
		if err := repos.Copies.TransitionStatus(ctx, t.BookCopyID, domain.CopyStatusBorrowed, domain.CopyStatusAvailable, now); err != nil {
			return err
		}
		returned = t
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("borrowService.RecordReturn", err, "transactionID", transactionID)
		return nil, err
	}

	logger.Info("Return recorded", "transactionID", transactionID, "staffID", staffID, "fine", returned.Return.FineAmount)
	logger.ExitMethod("borrowService.RecordReturn", "transactionID", transactionID)
	return returned, nil
}

func (s *borrowService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.LoanView, int32, error) {
	switch filter.Status {
	case "", domain.LoanStatusBorrowed, domain.LoanStatusOverdue:
	default:
		return nil, 0, fmt.Errorf("%w: unknown loan status %q", domain.ErrValidation, filter.Status)
	}
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)

	now := s.clock.Now()
	txs, total, err := s.store.Repos().Transactions.ListOpenLoans(ctx, filter, now)
	if err != nil {
		return nil, 0, err
	}

	views := make([]domain.LoanView, 0, len(txs))
	for _, t := range txs {
		views = append(views, ClassifyLoan(t, now, s.policy.FineRatePerDay))
	}
	return views, total, nil
}

func (s *borrowService) requireStaff(ctx context.Context, repos repository.Repositories, staffID int32) error {
	ok, err := repos.Staff.Exists(ctx, staffID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: staff %d", domain.ErrNotFound, staffID)
	}
	return nil
}

// ClassifyLoan derives the read-time status of an open loan: overdue once
// now is past the due date, with whole started days late and the fine that
// would be charged if it were returned now.
func ClassifyLoan(t domain.Transaction, now time.Time, ratePerDay int32) domain.LoanView {
	view := domain.LoanView{
		Transaction: t,
		Status:      domain.LoanStatusBorrowed,
	}
	if t.Loan == nil {
		return view
	}
	if now.After(t.Loan.DueDate) {
		view.Status = domain.LoanStatusOverdue
	}
	view.OverdueDays = utils.DaysLate(t.Loan.DueDate, now)
	view.ProjectedFine = utils.ComputeFine(t.Loan.DueDate, now, ratePerDay)
	return view
}
