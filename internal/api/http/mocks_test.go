package http

import (
	"context"

	"libraryhub-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CreateReservation(ctx context.Context, memberID, bookID int32) (*domain.Reservation, error) {
	args := m.Called(ctx, memberID, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Reservation), args.Get(1).(int32), args.Error(2)
}

func (m *MockReservationService) CancelReservation(ctx context.Context, transactionID int32, memberID *int32) error {
	args := m.Called(ctx, transactionID, memberID)
	return args.Error(0)
}

func (m *MockReservationService) SweepExpired(ctx context.Context) (*domain.SweepReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepReport), args.Error(1)
}

type MockBorrowService struct {
	mock.Mock
}

func (m *MockBorrowService) ConfirmBorrow(ctx context.Context, transactionID, staffID int32, borrowDays int) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, staffID, borrowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockBorrowService) RecordReturn(ctx context.Context, transactionID, staffID int32, fineAmount *int32) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, staffID, fineAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockBorrowService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.LoanView, int32, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LoanView), args.Get(1).(int32), args.Error(2)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
