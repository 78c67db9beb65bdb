package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Message string                `json:"message"`
	Errors  []domain.StockFailure `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Message: message})
}

// decodeJSON reads a JSON body of at most maxRequestBodySize bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, "request body is required")
		default:
			respondError(w, http.StatusBadRequest, "invalid JSON body")
		}
		return false
	}
	return true
}

// handleServiceError maps service and repository errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *service.StockError
	switch {
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: "Some items are not available in the requested quantity",
			Errors:  stockErr.Failures,
		})
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, repository.ErrUserExists):
		respondError(w, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrEmptyOrder):
		respondError(w, http.StatusBadRequest, "Order must contain at least one item")
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "Invalid order status")
	case errors.Is(err, service.IllegalTransitionError):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
