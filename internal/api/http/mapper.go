package http

import (
	"time"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/utils"
)

// Stored instants stay UTC in the *_at and *_date fields. The *_display
// fields carry the same instant in the configured display zone.

type transactionResponse struct {
	ID                int32      `json:"borrow_transaction_id"`
	MemberID          int32      `json:"user_id"`
	BookID            int32      `json:"book_id"`
	BookCopyID        int32      `json:"book_copy_id"`
	State             string     `json:"state"`
	CreatedAt         time.Time  `json:"created_at"`
	CreatedAtDisplay  string     `json:"created_at_display"`
	StaffID           *int32     `json:"staff_id,omitempty"`
	BorrowDate        *time.Time `json:"borrow_date,omitempty"`
	BorrowDateDisplay string     `json:"borrow_date_display,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	DueDateDisplay    string     `json:"due_date_display,omitempty"`
	ReturnStaffID     *int32     `json:"return_staff_id,omitempty"`
	ReturnDate        *time.Time `json:"return_date,omitempty"`
	ReturnDateDisplay string     `json:"return_date_display,omitempty"`
	FineAmount        *int32     `json:"fine_amount,omitempty"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

type reservationResponse struct {
	transactionResponse
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresAtDisplay string    `json:"expires_at_display"`
	MinutesElapsed   int64     `json:"minutes_elapsed"`
	MinutesRemaining int64     `json:"minutes_remaining"`
	Status           string    `json:"status"`
}

type loanResponse struct {
	transactionResponse
	Status        string `json:"status"`
	OverdueDays   int32  `json:"overdue_days"`
	ProjectedFine int32  `json:"projected_fine"`
}

type sweptResponse struct {
	ID               int32     `json:"borrow_transaction_id"`
	MemberID         int32     `json:"user_id"`
	BookID           int32     `json:"book_id"`
	BookCopyID       int32     `json:"book_copy_id"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiredAt        time.Time `json:"expired_at"`
	ExpiredAtDisplay string    `json:"expired_at_display"`
}

type mapper struct {
	zone *time.Location
}

func (m mapper) display(t time.Time) string {
	return utils.ToDisplayTime(t, m.zone).Format(time.RFC3339)
}

func (m mapper) transaction(t *domain.Transaction) transactionResponse {
	res := transactionResponse{
		ID:               t.ID,
		MemberID:         t.MemberID,
		BookID:           t.BookID,
		BookCopyID:       t.BookCopyID,
		State:            string(t.State),
		CreatedAt:        t.CreatedAt.UTC(),
		CreatedAtDisplay: m.display(t.CreatedAt),
		DeletedAt:        t.CancelledAt,
	}
	if t.Loan != nil {
		staffID := t.Loan.StaffID
		borrowDate := t.Loan.BorrowDate.UTC()
		dueDate := t.Loan.DueDate.UTC()
		res.StaffID = &staffID
		res.BorrowDate = &borrowDate
		res.BorrowDateDisplay = m.display(borrowDate)
		res.DueDate = &dueDate
		res.DueDateDisplay = m.display(dueDate)
	}
	if t.Return != nil {
		staffID := t.Return.StaffID
		returnDate := t.Return.ReturnDate.UTC()
		fine := t.Return.FineAmount
		res.ReturnStaffID = &staffID
		res.ReturnDate = &returnDate
		res.ReturnDateDisplay = m.display(returnDate)
		res.FineAmount = &fine
	}
	return res
}

func (m mapper) reservation(r *domain.Reservation) reservationResponse {
	return reservationResponse{
		transactionResponse: m.transaction(&r.Transaction),
		ExpiresAt:           r.ExpiresAt.UTC(),
		ExpiresAtDisplay:    m.display(r.ExpiresAt),
		MinutesElapsed:      r.MinutesElapsed,
		MinutesRemaining:    r.MinutesRemaining,
		Status:              string(r.Status),
	}
}

func (m mapper) loan(v *domain.LoanView) loanResponse {
	return loanResponse{
		transactionResponse: m.transaction(&v.Transaction),
		Status:              string(v.Status),
		OverdueDays:         v.OverdueDays,
		ProjectedFine:       v.ProjectedFine,
	}
}

func (m mapper) swept(s domain.SweptReservation) sweptResponse {
	return sweptResponse{
		ID:               s.TransactionID,
		MemberID:         s.MemberID,
		BookID:           s.BookID,
		BookCopyID:       s.BookCopyID,
		CreatedAt:        s.CreatedAt.UTC(),
		ExpiredAt:        s.ExpiredAt.UTC(),
		ExpiredAtDisplay: m.display(s.ExpiredAt),
	}
}
