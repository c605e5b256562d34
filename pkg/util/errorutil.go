package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewIllegalTransition signals a status change that is not reachable from the
// current state. The entity is left in its prior state.
func NewIllegalTransition(from, to string) error {
	return NewDomainError("ILLEGAL_TRANSITION",
		fmt.Sprintf("cannot transition from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

// NewIllegalOperation signals an operation forbidden in the current state,
// such as deleting a ticket that already left PENDING.
func NewIllegalOperation(message string) error {
	return NewDomainError("ILLEGAL_OPERATION", message, http.StatusConflict, nil)
}

// NewInsufficientStock signals a consume request exceeding current stock.
func NewInsufficientStock(materialID string, requested float64) error {
	return NewDomainError("INSUFFICIENT_STOCK", "insufficient stock",
		http.StatusConflict,
		map[string]any{
			"material_id": materialID,
			"requested":   requested,
		})
}

// NewInvalidOperatingHours signals a regressing operating-hours update.
func NewInvalidOperatingHours(requested float64) error {
	return NewDomainError("INVALID_OPERATING_HOURS",
		"operating hours cannot decrease",
		http.StatusBadRequest,
		map[string]any{"requested": requested})
}

// NewDuplicateCode signals a code collision on create or rename.
func NewDuplicateCode(resource, code string) error {
	return NewDomainError("DUPLICATE_CODE",
		fmt.Sprintf("%s code already in use", resource),
		http.StatusConflict,
		map[string]any{"code": code})
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Anything outside the
// business taxonomy is classified as an infrastructure failure so callers can
// distinguish "your request was invalid" from "try again later".
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
