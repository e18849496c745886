package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindBusinessRule Kind = "business_rule"
	KindGateway      Kind = "gateway"
	KindAuth         Kind = "auth"
	KindServer       Kind = "server"
)

// Error is a classified, user-facing rejection
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a malformed-input error
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound creates a missing-resource error
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// BusinessRule creates a rule-violation error
func BusinessRule(code, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message}
}

// Gateway wraps a remote payment service failure, keeping its message
func Gateway(err error) *Error {
	return &Error{Kind: KindGateway, Code: "gateway_error", Message: err.Error(), Err: err}
}

// Auth creates a credential error
func Auth(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

// As extracts the classified error from an error chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindServer when unclassified
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindServer
}

// CodeOf returns the machine code of err, "internal_error" when unclassified
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return "internal_error"
}
