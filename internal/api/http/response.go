package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"libraryhub-backend/internal/domain"
	"libraryhub-backend/internal/logger"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type pagination struct {
	Page       int32 `json:"page"`
	Limit      int32 `json:"limit"`
	Total      int32 `json:"total"`
	TotalPages int32 `json:"total_pages"`
}

func newPagination(page, limit, total int32) pagination {
	p := pagination{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps domain errors to HTTP status codes. Anything unrecognized
// is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMemberInactive),
		errors.Is(err, domain.ErrReaderGroupMismatch):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBookUnavailable),
		errors.Is(err, domain.ErrBorrowLimitExceeded),
		errors.Is(err, domain.ErrDuplicateReservation),
		errors.Is(err, domain.ErrNoCopyAvailable),
		errors.Is(err, domain.ErrAlreadyReturned),
		errors.Is(err, domain.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReservationExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "request_id", RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", domain.ErrValidation, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrValidation)
	}
	return nil
}

// queryInt32 parses an optional positive integer query parameter.
func queryInt32(r *http.Request, name string) (*int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, name)
	}
	n := int32(v)
	return &n, nil
}

func queryPage(r *http.Request) (page, limit int32, err error) {
	p, err := queryInt32(r, "page")
	if err != nil {
		return 0, 0, err
	}
	l, err := queryInt32(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	if p != nil {
		page = *p
	}
	if l != nil {
		limit = *l
	}
	return page, limit, nil
}
