package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check handles GET /healthz
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterRoutes mounts the library endpoints on router.
func RegisterRoutes(router *mux.Router, reservations *ReservationHandler, borrows *BorrowHandler, health *HealthHandler) {
	router.HandleFunc("/reservations", reservations.Create).Methods(http.MethodPost)
	router.HandleFunc("/reservations", reservations.List).Methods(http.MethodGet)
	router.HandleFunc("/reservations", reservations.Cancel).Methods(http.MethodDelete)
	router.HandleFunc("/reservations/cleanup", reservations.Cleanup).Methods(http.MethodPost)

	router.HandleFunc("/borrow", borrows.Confirm).Methods(http.MethodPost)
	router.HandleFunc("/borrow", borrows.List).Methods(http.MethodGet)
	router.HandleFunc("/borrow/return", borrows.Return).Methods(http.MethodPost)

	router.HandleFunc("/healthz", health.Check).Methods(http.MethodGet)
}

// NewRouter builds the router with request id, logging and panic recovery.
func NewRouter(reservations *ReservationHandler, borrows *BorrowHandler, health *HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, Logging, Recover)
	RegisterRoutes(router, reservations, borrows, health)
	return router
}
