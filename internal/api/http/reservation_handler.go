package http

import (
	"fmt"
	"net/http"
	"time"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/service"
)

type ReservationHandler struct {
	svc service.ReservationService
	mapper
}

func NewReservationHandler(svc service.ReservationService, zone *time.Location) *ReservationHandler {
	return &ReservationHandler{svc: svc, mapper: mapper{zone: zone}}
}

type createReservationRequest struct {
	UserID int32 `json:"user_id"`
	BookID int32 `json:"book_id"`
}

// Create handles POST /reservations
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.UserID < 1 || req.BookID < 1 {
		writeError(w, r, fmt.Errorf("%w: user_id and book_id are required", domain.ErrValidation))
		return
	}

	res, err := h.svc.CreateReservation(r.Context(), req.UserID, req.BookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := h.reservation(res)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Reservation created",
		"data":       data,
		"expires_at": data.ExpiresAt,
	})
}

// List handles GET /reservations
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
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

	list, total, err := h.svc.ListReservations(r.Context(), domain.ReservationFilter{MemberID: memberID, Page: page, Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := make([]reservationResponse, 0, len(list))
	for i := range list {
		data = append(data, h.reservation(&list[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       data,
		"pagination": newPagination(page, limit, total),
	})
}

// Cancel handles DELETE /reservations?id=&user_id=
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if id == nil {
		writeError(w, r, fmt.Errorf("%w: id is required", domain.ErrValidation))
		return
	}
	memberID, err := queryInt32(r, "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.CancelReservation(r.Context(), *id, memberID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Reservation cancelled"})
}

// Cleanup handles POST /reservations/cleanup
func (h *ReservationHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.SweepExpired(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	cleaned := make([]sweptResponse, 0, len(report.Cleaned))
	for _, s := range report.Cleaned {
		cleaned = append(cleaned, h.swept(s))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":              fmt.Sprintf("Cleaned up %d expired reservations", report.CleanedCount),
		"cleaned_count":        report.CleanedCount,
		"cleaned_reservations": cleaned,
	})
}
