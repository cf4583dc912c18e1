package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/validation"
)

type errorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: more specific sentinels first.
var errorMappings = []errorMapping{
	{domain.ErrBackdatedNotAllowed, http.StatusForbidden, "BACKDATED_NOT_ALLOWED"},
	{domain.ErrInsufficientRole, http.StatusForbidden, "INSUFFICIENT_ROLE"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{domain.ErrInvalidNozzle, http.StatusNotFound, "INVALID_NOZZLE"},
	{domain.ErrInvalidCreditor, http.StatusNotFound, "INVALID_CREDITOR"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicateReading, http.StatusConflict, "DUPLICATE_READING"},
	{domain.ErrDayFinalized, http.StatusConflict, "DAY_FINALIZED"},
	{domain.ErrAlreadyVoided, http.StatusConflict, "ALREADY_VOIDED"},
	{domain.ErrCreditLimitExceeded, http.StatusConflict, "CREDIT_LIMIT_EXCEEDED"},
	{domain.ErrResetNotConfirmed, http.StatusUnprocessableEntity, "RESET_NOT_CONFIRMED"},
	{domain.ErrPriceNotConfigured, http.StatusUnprocessableEntity, "PRICE_NOT_CONFIGURED"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
}

// StatusFor maps an engine error to an HTTP status and a stable code.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	resp := errorResponse{Code: code, Message: err.Error()}

	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	if status == http.StatusInternalServerError {
		logger.Error("Unhandled error", "error", err)
		resp.Message = "internal error"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}
