package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"libraryhub-backend/internal/clock"
	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/logger"
	"libraryhub-backend/internal/repository"
	"libraryhub-backend/internal/utils"
)

type reservationService struct {
	store  repository.Store
	clock  clock.Clock
	policy Policy
}

func NewReservationService(store repository.Store, clk clock.Clock, policy Policy) ReservationService {
	return &reservationService{
		store:  store,
		clock:  clk,
		policy: policy,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, memberID, bookID int32) (*domain.Reservation, error) {
	logger.EnterMethod("reservationService.CreateReservation", "memberID", memberID, "bookID", bookID)

	now := s.clock.Now()
	var created *domain.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		member, err := repos.Members.GetForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		if member.Status != domain.MemberStatusActive {
			return fmt.Errorf("%w: member %d", domain.ErrMemberInactive, memberID)
		}

		book, err := repos.Books.GetByID(ctx, bookID)
		if err != nil {
			return err
		}
		if book.Status != domain.BookStatusActive {
			return fmt.Errorf("%w: book %d", domain.ErrBookUnavailable, bookID)
		}
		if !book.AllowsMemberType(member.Type) {
			return fmt.Errorf("%w: %s members cannot reserve %s books", domain.ErrReaderGroupMismatch, member.Type, book.ReaderGroup)
		}

		open, err := repos.Transactions.CountOpenByMember(ctx, memberID)
		if err != nil {
			return err
		}
		if open >= book.BookLimit {
			return fmt.Errorf("%w: member %d holds %d of %d", domain.ErrBorrowLimitExceeded, memberID, open, book.BookLimit)
		}

		dup, err := repos.Transactions.HasPendingReservation(ctx, memberID, bookID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("%w: member %d already reserved book %d", domain.ErrDuplicateReservation, memberID, bookID)
		}

		bookCopy, err := repos.Copies.ClaimAvailable(ctx, bookID, now)
		if err != nil {
			return err
		}

		created = domain.NewReservation(memberID, bookID, bookCopy.ID, now)
		return repos.Transactions.Create(ctx, created)
	})
	if err != nil {
		logger.ExitMethodWithError("reservationService.CreateReservation", err, "memberID", memberID, "bookID", bookID)
		return nil, err
	}

	logger.Info("Reservation created", "transactionID", created.ID, "memberID", memberID, "bookID", bookID, "copyID", created.BookCopyID)
	logger.ExitMethod("reservationService.CreateReservation", "transactionID", created.ID)
	return s.toReservation(*created, now), nil
}

func (s *reservationService) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)

	txs, total, err := s.store.Repos().Transactions.ListPending(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	now := s.clock.Now()
	reservations := make([]domain.Reservation, 0, len(txs))
	for _, t := range txs {
		reservations = append(reservations, *s.toReservation(t, now))
	}
	return reservations, total, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, transactionID int32, memberID *int32) error {
	logger.EnterMethod("reservationService.CancelReservation", "transactionID", transactionID)

	now := s.clock.Now()
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		t, err := repos.Transactions.GetForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if memberID != nil && t.MemberID != *memberID {
			return fmt.Errorf("%w: reservation %d for member %d", domain.ErrNotFound, transactionID, *memberID)
		}
		return cancel(ctx, repos, t, now)
	})
	if err != nil {
		logger.ExitMethodWithError("reservationService.CancelReservation", err, "transactionID", transactionID)
		return err
	}

	logger.Info("Reservation cancelled", "transactionID", transactionID)
	logger.ExitMethod("reservationService.CancelReservation", "transactionID", transactionID)
	return nil
}

func (s *reservationService) SweepExpired(ctx context.Context) (*domain.SweepReport, error) {
	logger.EnterMethod("reservationService.SweepExpired")

	now := s.clock.Now()
	candidates, err := s.store.Repos().Transactions.ListExpiredPending(ctx, now.Add(-s.policy.ReservationTTL))
	if err != nil {
		logger.ExitMethodWithError("reservationService.SweepExpired", err)
		return nil, err
	}

	report := &domain.SweepReport{Cleaned: []domain.SweptReservation{}}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			report.CleanedCount = len(report.Cleaned)
			logger.ExitMethodWithError("reservationService.SweepExpired", err, "cleaned", report.CleanedCount)
			return report, err
		}

		var swept *domain.Transaction
		err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			t, err := repos.Transactions.GetForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			// Confirmed or cancelled since it was listed.
			if !t.IsExpired(now, s.policy.ReservationTTL) {
				return nil
			}
			if err := cancel(ctx, repos, t, now); err != nil {
				return err
			}
			swept = t
			return nil
		})
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Error("Failed to cancel expired reservation", "transactionID", candidate.ID, "error", err)
			}
			continue
		}
		if swept == nil {
			continue
		}

		report.Cleaned = append(report.Cleaned, domain.SweptReservation{
			TransactionID: swept.ID,
			MemberID:      swept.MemberID,
			BookID:        swept.BookID,
			BookCopyID:    swept.BookCopyID,
			CreatedAt:     swept.CreatedAt,
			ExpiredAt:     swept.ExpiresAt(s.policy.ReservationTTL),
		})
	}
	report.CleanedCount = len(report.Cleaned)

	if report.CleanedCount > 0 {
		logger.Info("Expired reservations swept", "count", report.CleanedCount)
	}
	logger.ExitMethod("reservationService.SweepExpired", "cleaned", report.CleanedCount)
	return report, nil
}

// cancel releases the copy held by a pending reservation.
func cancel(ctx context.Context, repos repository.Repositories, t *domain.Transaction, now time.Time) error {
	if err := t.Cancel(now); err != nil {
		return err
	}
	if err := repos.Transactions.Update(ctx, t); err != nil {
		return err
	}
	return repos.Copies.TransitionStatus(ctx, t.BookCopyID, domain.CopyStatusReserved, domain.CopyStatusAvailable, now)
}

func (s *reservationService) toReservation(t domain.Transaction, now time.Time) *domain.Reservation {
	ttlMinutes := int64(s.policy.ReservationTTL / time.Minute)
	elapsed := utils.MinutesBetween(t.CreatedAt, now)

	r := &domain.Reservation{
		Transaction:      t,
		ExpiresAt:        t.ExpiresAt(s.policy.ReservationTTL),
		MinutesElapsed:   elapsed,
		MinutesRemaining: ttlMinutes - elapsed,
		Status:           domain.ReservationStatusActive,
	}
	if r.MinutesRemaining < 0 {
		r.MinutesRemaining = 0
	}
	if elapsed >= ttlMinutes {
		r.Status = domain.ReservationStatusExpired
	}
	return r
}
