package http

import (
	"fmt"
	"net/http"
	"time"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/service"
)

type BorrowHandler struct {
	svc service.BorrowService
	mapper
}

func NewBorrowHandler(svc service.BorrowService, zone *time.Location) *BorrowHandler {
	return &BorrowHandler{svc: svc, mapper: mapper{zone: zone}}
}

type confirmBorrowRequest struct {
	TransactionID int32 `json:"borrow_transaction_id"`
	StaffID       int32 `json:"staff_id"`
	BorrowDays    int   `json:"borrow_days"`
}

type recordReturnRequest struct {
	TransactionID int32  `json:"borrow_transaction_id"`
	StaffID       int32  `json:"staff_id"`
	FineAmount    *int32 `json:"fine_amount"`
}

// Confirm handles POST /borrow
func (h *BorrowHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmBorrowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TransactionID < 1 || req.StaffID < 1 {
		writeError(w, r, fmt.Errorf("%w: borrow_transaction_id and staff_id are required", domain.ErrValidation))
		return
	}

	tx, err := h.svc.ConfirmBorrow(r.Context(), req.TransactionID, req.StaffID, req.BorrowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Borrow confirmed",
		"data":    h.transaction(tx),
	})
}

// Return handles POST /borrow/return
func (h *BorrowHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req recordReturnRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TransactionID < 1 || req.StaffID < 1 {
		writeError(w, r, fmt.Errorf("%w: borrow_transaction_id and staff_id are required", domain.ErrValidation))
		return
	}

	tx, err := h.svc.RecordReturn(r.Context(), req.TransactionID, req.StaffID, req.FineAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Book returned",
		"data":    h.transaction(tx),
	})
}

// List handles GET /borrow
func (h *BorrowHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID, err := queryInt32(r, "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, limit, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, limit = service.NormalizePage(page, limit)

	filter := domain.LoanFilter{
		MemberID: memberID,
		Status:   domain.LoanStatus(r.URL.Query().Get("status")),
		Page:     page,
		Limit:    limit,
	}
	loans, total, err := h.svc.ListLoans(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := make([]loanResponse, 0, len(loans))
	for i := range loans {
		data = append(data, h.loan(&loans[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       data,
		"pagination": newPagination(page, limit, total),
	})
}
