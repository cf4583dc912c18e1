// Package validation wraps a shared go-playground validator with the decimal rules
// used by request structs.
//
//	type SubmitReadingRequest struct {
//	    Reading decimal.Decimal `json:"reading" validate:"decimal_gte0,decimal_places=3"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    return err // errors.Is(err, domain.ErrInvalidInput) holds
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fuelrecon-backend/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// RequestValidationError collects every failed rule of one struct. It matches
// domain.ErrInvalidInput under errors.Is.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

func (ve *RequestValidationError) Unwrap() error {
	return domain.ErrInvalidInput
}

// GetValidator returns the shared validator, registering the decimal rules on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// Decimals are validated through their canonical string form.
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})

		mustRegister("decimal_gte0", decimalGTE0)
		mustRegister("decimal_gt0", decimalGT0)
		mustRegister("decimal_places", decimalPlaces)
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

func parseDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

func decimalGTE0(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	return ok && !d.IsNegative()
}

func decimalGT0(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	return ok && d.IsPositive()
}

// decimalPlaces checks the value has at most param digits after the point.
func decimalPlaces(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	if !ok {
		return false
	}
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return d.Equal(d.Truncate(int32(places)))
}

// ValidateStruct returns nil or a *RequestValidationError.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translateError(fe)}
	}
	return &RequestValidationError{Fields: fields}
}

var errorMessageTemplates = map[string]string{
	"required":     "%s is required",
	"decimal_gte0": "%s must not be negative",
	"decimal_gt0":  "%s must be greater than zero",
	"gt":           "%s must be positive",
}

var errorMessageWithParam = map[string]string{
	"oneof":           "%s must be one of: %s",
	"decimal_places":  "%s allows at most %s decimal places",
	"required_if":     "%s is required when %s",
	"excluded_unless": "%s is only allowed when %s",
	"required_with":   "%s is required together with %s",
}

func translateError(fe validator.FieldError) string {
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field())
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
