package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. The transport layer maps these to status codes.
var (
	// Validation
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidNozzle     = errors.New("nozzle not found or inactive")
	ErrInvalidCreditor   = errors.New("creditor not found")
	ErrNotFound          = errors.New("not found")
	ErrResetNotConfirmed = errors.New("decreasing reading requires confirmed meter reset")

	// Business rules
	ErrDayFinalized        = errors.New("day reconciliation is finalized")
	ErrDuplicateReading    = errors.New("duplicate reading")
	ErrInsufficientRole    = errors.New("insufficient role")
	ErrBackdatedNotAllowed = fmt.Errorf("%w: backdated reading not allowed", ErrInsufficientRole)
	ErrPriceNotConfigured  = errors.New("fuel price not configured")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
	ErrAlreadyVoided       = errors.New("reading already voided")

	// Infrastructure
	ErrUnavailable = errors.New("service unavailable")
)
