package service

import (
	"errors"

	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
)

var businessErrors = []error{
	domain.ErrInvalidInput,
	domain.ErrInvalidNozzle,
	domain.ErrInvalidCreditor,
	domain.ErrNotFound,
	domain.ErrResetNotConfirmed,
	domain.ErrDayFinalized,
	domain.ErrDuplicateReading,
	domain.ErrInsufficientRole,
	domain.ErrPriceNotConfigured,
	domain.ErrCreditLimitExceeded,
	domain.ErrAlreadyVoided,
}

// IsBusinessError reports whether err is a rule violation rather than an infrastructure fault.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// logFailure logs rule violations at warn and everything else at error.
func logFailure(method string, err error, args ...any) {
	if IsBusinessError(err) {
		logger.Rejected(method, err, args...)
		return
	}
	logger.Error("Operation failed", append([]any{"method", method, "error", err}, args...)...)
}
