package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 3, 1, 20, 30, 0, 0, time.UTC)

type testServer struct {
	router       *mux.Router
	reservations *MockReservationService
	borrows      *MockBorrowService
	pinger       *MockPinger
}

func newTestServer() *testServer {
	ts := &testServer{
		reservations: new(MockReservationService),
		borrows:      new(MockBorrowService),
		pinger:       new(MockPinger),
	}
	zone := utils.DisplayZone(7)
	ts.router = NewRouter(
		NewReservationHandler(ts.reservations, zone),
		NewBorrowHandler(ts.borrows, zone),
		NewHealthHandler(ts.pinger),
	)
	return ts
}

func (ts *testServer) do(method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func pendingReservation() *domain.Reservation {
	return &domain.Reservation{
		Transaction: domain.Transaction{
			ID:         10,
			MemberID:   3,
			BookID:     7,
			BookCopyID: 21,
			State:      domain.TransactionStatePending,
			CreatedAt:  created,
		},
		ExpiresAt:        created.Add(24 * time.Hour),
		MinutesRemaining: 1440,
		Status:           domain.ReservationStatusActive,
	}
}

func TestReservationHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ts := newTestServer()
		ts.reservations.On("CreateReservation", mock.Anything, int32(3), int32(7)).Return(pendingReservation(), nil)

		rec, body := ts.do(http.MethodPost, "/reservations", `{"user_id":3,"book_id":7}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
		assert.Equal(t, "2024-03-02T20:30:00Z", body["expires_at"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(10), data["borrow_transaction_id"])
		assert.Equal(t, "2024-03-01T20:30:00Z", data["created_at"])
		assert.Equal(t, "2024-03-02T03:30:00+07:00", data["created_at_display"])
		assert.Equal(t, "active", data["status"])
		assert.NotContains(t, data, "borrow_date")
		ts.reservations.AssertExpectations(t)
	})

	t.Run("Missing fields", func(t *testing.T) {
		ts := newTestServer()
		rec, body := ts.do(http.MethodPost, "/reservations", `{"user_id":3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "book_id")
		ts.reservations.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Malformed body", func(t *testing.T) {
		ts := newTestServer()
		rec, _ := ts.do(http.MethodPost, "/reservations", `{"user_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrMemberInactive, http.StatusForbidden},
		{domain.ErrReaderGroupMismatch, http.StatusForbidden},
		{domain.ErrBookUnavailable, http.StatusConflict},
		{domain.ErrBorrowLimitExceeded, http.StatusConflict},
		{domain.ErrDuplicateReservation, http.StatusConflict},
		{domain.ErrNoCopyAvailable, http.StatusConflict},
		{domain.ErrAlreadyReturned, http.StatusConflict},
		{domain.ErrStateConflict, http.StatusConflict},
		{domain.ErrReservationExpired, http.StatusGone},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ts := newTestServer()
			wrapped := fmt.Errorf("%w: detail", tt.err)
			ts.reservations.On("CreateReservation", mock.Anything, int32(3), int32(7)).Return(nil, wrapped)

			rec, body := ts.do(http.MethodPost, "/reservations", `{"user_id":3,"book_id":7}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, wrapped.Error(), body["error"])
		})
	}

	t.Run("Unknown errors are hidden", func(t *testing.T) {
		ts := newTestServer()
		ts.reservations.On("CreateReservation", mock.Anything, int32(3), int32(7)).
			Return(nil, errors.New("pq: connection refused"))

		rec, body := ts.do(http.MethodPost, "/reservations", `{"user_id":3,"book_id":7}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", body["error"])
	})
}

func TestReservationHandler_List(t *testing.T) {
	t.Run("Filter and pagination", func(t *testing.T) {
		ts := newTestServer()
		member := int32(3)
		ts.reservations.On("ListReservations", mock.Anything, domain.ReservationFilter{MemberID: &member, Page: 2, Limit: 5}).
			Return([]domain.Reservation{*pendingReservation()}, int32(11), nil)

		rec, body := ts.do(http.MethodGet, "/reservations?user_id=3&page=2&limit=5", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["data"], 1)
		p := body["pagination"].(map[string]interface{})
		assert.Equal(t, float64(2), p["page"])
		assert.Equal(t, float64(11), p["total"])
		assert.Equal(t, float64(3), p["total_pages"])
	})

	t.Run("Defaults and cap", func(t *testing.T) {
		ts := newTestServer()
		ts.reservations.On("ListReservations", mock.Anything, domain.ReservationFilter{Page: 1, Limit: 100}).
			Return([]domain.Reservation{}, int32(0), nil)

		rec, body := ts.do(http.MethodGet, "/reservations?limit=500", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, body["data"])
		assert.NotNil(t, body["data"])
	})

	t.Run("Bad user id", func(t *testing.T) {
		ts := newTestServer()
		rec, _ := ts.do(http.MethodGet, "/reservations?user_id=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReservationHandler_Cancel(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ts := newTestServer()
		member := int32(3)
		ts.reservations.On("CancelReservation", mock.Anything, int32(10), &member).Return(nil)

		rec, body := ts.do(http.MethodDelete, "/reservations?id=10&user_id=3", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Reservation cancelled", body["message"])
	})

	t.Run("Missing id", func(t *testing.T) {
		ts := newTestServer()
		rec, _ := ts.do(http.MethodDelete, "/reservations", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Not found", func(t *testing.T) {
		ts := newTestServer()
		ts.reservations.On("CancelReservation", mock.Anything, int32(10), (*int32)(nil)).Return(domain.ErrNotFound)

		rec, _ := ts.do(http.MethodDelete, "/reservations?id=10", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReservationHandler_Cleanup(t *testing.T) {
	ts := newTestServer()
	ts.reservations.On("SweepExpired", mock.Anything).Return(&domain.SweepReport{
		CleanedCount: 1,
		Cleaned: []domain.SweptReservation{{
			TransactionID: 10, MemberID: 3, BookID: 7, BookCopyID: 21,
			CreatedAt: created, ExpiredAt: created.Add(24 * time.Hour),
		}},
	}, nil)

	rec, body := ts.do(http.MethodPost, "/reservations/cleanup", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["cleaned_count"])
	cleaned := body["cleaned_reservations"].([]interface{})
	require.Len(t, cleaned, 1)
	assert.Equal(t, "2024-03-03T03:30:00+07:00", cleaned[0].(map[string]interface{})["expired_at_display"])
}

func borrowedTransaction() *domain.Transaction {
	return &domain.Transaction{
		ID:         10,
		MemberID:   3,
		BookID:     7,
		BookCopyID: 21,
		State:      domain.TransactionStateBorrowed,
		CreatedAt:  created,
		Loan: &domain.Loan{
			StaffID:    2,
			BorrowDate: created,
			DueDate:    created.Add(14 * 24 * time.Hour),
		},
	}
}

func TestBorrowHandler_Confirm(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ts := newTestServer()
		ts.borrows.On("ConfirmBorrow", mock.Anything, int32(10), int32(2), 14).Return(borrowedTransaction(), nil)

		rec, body := ts.do(http.MethodPost, "/borrow", `{"borrow_transaction_id":10,"staff_id":2,"borrow_days":14}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "borrowed", data["state"])
		assert.Equal(t, "2024-03-15T20:30:00Z", data["due_date"])
		assert.Equal(t, "2024-03-16T03:30:00+07:00", data["due_date_display"])
		assert.Equal(t, float64(2), data["staff_id"])
	})

	t.Run("Borrow days omitted", func(t *testing.T) {
		ts := newTestServer()
		ts.borrows.On("ConfirmBorrow", mock.Anything, int32(10), int32(2), 0).Return(borrowedTransaction(), nil)

		rec, _ := ts.do(http.MethodPost, "/borrow", `{"borrow_transaction_id":10,"staff_id":2}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		ts.borrows.AssertExpectations(t)
	})

	t.Run("Lapsed reservation", func(t *testing.T) {
		ts := newTestServer()
		ts.borrows.On("ConfirmBorrow", mock.Anything, int32(10), int32(2), 14).Return(nil, domain.ErrReservationExpired)

		rec, _ := ts.do(http.MethodPost, "/borrow", `{"borrow_transaction_id":10,"staff_id":2,"borrow_days":14}`)
		assert.Equal(t, http.StatusGone, rec.Code)
	})
}

func TestBorrowHandler_Return(t *testing.T) {
	returned := borrowedTransaction()
	returned.State = domain.TransactionStateReturned
	returned.Return = &domain.Return{StaffID: 4, ReturnDate: created.Add(20 * 24 * time.Hour), FineAmount: 30}

	t.Run("Computed fine", func(t *testing.T) {
		ts := newTestServer()
		ts.borrows.On("RecordReturn", mock.Anything, int32(10), int32(4), (*int32)(nil)).Return(returned, nil)

		rec, body := ts.do(http.MethodPost, "/borrow/return", `{"borrow_transaction_id":10,"staff_id":4}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(30), data["fine_amount"])
		assert.Equal(t, float64(4), data["return_staff_id"])
		assert.Equal(t, float64(2), data["staff_id"])
	})

	t.Run("Explicit zero fine is passed through", func(t *testing.T) {
		ts := newTestServer()
		ts.borrows.On("RecordReturn", mock.Anything, int32(10), int32(4), mock.MatchedBy(func(f *int32) bool {
			return f != nil && *f == 0
		})).Return(returned, nil)

		rec, _ := ts.do(http.MethodPost, "/borrow/return", `{"borrow_transaction_id":10,"staff_id":4,"fine_amount":0}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		ts.borrows.AssertExpectations(t)
	})

	t.Run("Already returned", func(t *testing.T) {
		ts := newTestServer()
		ts.borrows.On("RecordReturn", mock.Anything, int32(10), int32(4), (*int32)(nil)).Return(nil, domain.ErrAlreadyReturned)

		rec, _ := ts.do(http.MethodPost, "/borrow/return", `{"borrow_transaction_id":10,"staff_id":4}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestBorrowHandler_List(t *testing.T) {
	ts := newTestServer()
	view := domain.LoanView{Transaction: *borrowedTransaction(), Status: domain.LoanStatusOverdue, OverdueDays: 6, ProjectedFine: 30}
	ts.borrows.On("ListLoans", mock.Anything, domain.LoanFilter{Status: domain.LoanStatusOverdue, Page: 1, Limit: 10}).
		Return([]domain.LoanView{view}, int32(1), nil)

	rec, body := ts.do(http.MethodGet, "/borrow?status=overdue", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	loan := data[0].(map[string]interface{})
	assert.Equal(t, "overdue", loan["status"])
	assert.Equal(t, float64(6), loan["overdue_days"])
	assert.Equal(t, float64(30), loan["projected_fine"])
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer()
	ts.pinger.On("Ping", mock.Anything).Return(nil).Once()
	ts.pinger.On("Ping", mock.Anything).Return(errors.New("down")).Once()

	rec, body := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	ts := newTestServer()
	ts.reservations.On("SweepExpired", mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	req := httptest.NewRequest(http.MethodPost, "/reservations/cleanup", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, rec.Body.String(), "internal error")
}
