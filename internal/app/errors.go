package app

import (
	"fmt"
	"net/http"
	"strings"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func notFound(what string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
}

// FieldError is one entry of a VALIDATION_FAILED details list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validator struct {
	errs []FieldError
}

func (v *validator) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.errs = append(v.errs, FieldError{Field: field, Message: "is required"})
	}
}

// optional checks a field that may be omitted but not sent blank.
func (v *validator) optional(field string, value *string) {
	if value != nil && strings.TrimSpace(*value) == "" {
		v.errs = append(v.errs, FieldError{Field: field, Message: "must not be empty"})
	}
}

func (v *validator) email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		v.errs = append(v.errs, FieldError{Field: field, Message: "is required"})
		return
	}
	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 || strings.ContainsAny(value, " \t\r\n") {
		v.errs = append(v.errs, FieldError{Field: field, Message: "must be a valid email address"})
	}
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.errs = append(v.errs, FieldError{Field: field, Message: message})
	}
}

func (v *validator) err(message string) error {
	if len(v.errs) == 0 {
		return nil
	}
	return domainError(http.StatusBadRequest, "VALIDATION_FAILED", message, v.errs)
}
