package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/models"
)

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		sendErrorResponse(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrState):
		sendErrorResponse(w, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		sendErrorResponse(w, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		sendErrorResponse(w, http.StatusConflict, "CONCURRENCY_CONFLICT", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		log.Printf("Storage failure: %v", err)
		sendErrorResponse(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage is unavailable, retry later")
	default:
		log.Printf("Unclassified error: %v", err)
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	}
}

// ParamErrorHandler answers requests whose path or query parameters fail to bind.
func ParamErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
}

// sendErrorResponse sends an error response in the expected format
func sendErrorResponse(w http.ResponseWriter, statusCode int, code, details string) {
	errorResp := models.BaseError{
		Code:        code,
		Description: &details,
		Id:          uuid.New(),
	}
	writeJSON(w, statusCode, errorResp)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
