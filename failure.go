package bapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Messages used in error responses.
const (
	MessageBadRequest = "Bad request."
	MessageValidation = "Bad request. See errors for details."
	MessageInternal   = "Internal server error. Assume request failed. Please try again"
)

// FailureKind classifies why a request failed.
type FailureKind int

const (
	// BadRequest is a request the router could not make sense of: an unknown content type, a
	// malformed body or a parameter value that does not coerce.
	BadRequest FailureKind = iota + 1
	// ValidationFailure is a well-formed request whose content violates field constraints.
	ValidationFailure
	// HTTPFailure is an error with a status code that was raised by a handler.
	HTTPFailure
	// InternalFailure is any other error. Its details are never sent to the client.
	InternalFailure
)

func (k FailureKind) String() string {
	switch k {
	case BadRequest:
		return "bad_request"
	case ValidationFailure:
		return "validation_failure"
	case HTTPFailure:
		return "http_failure"
	case InternalFailure:
		return "internal_failure"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is a classified request failure and knows how it is presented to the client.
type Failure struct {
	Kind    FailureKind
	Status  int
	Message string
	Errors  []FieldError
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause == nil {
		return fmt.Sprintf("%s (%d): %s", f.Kind, f.Status, f.Message)
	}

	return fmt.Sprintf("%s (%d): %s: %s", f.Kind, f.Status, f.Message, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Body returns the value that is encoded as the response body.
func (f *Failure) Body() any {
	switch f.Kind {
	case BadRequest, ValidationFailure:
		return ValidationErrorResponse{Code: f.Status, Name: f.Message, Errors: f.Errors}
	default:
		return HTTPErrorResponse{Code: f.Status, Name: f.Message}
	}
}

func newBadRequest(msg string, cause error) *Failure {
	return &Failure{Kind: BadRequest, Status: http.StatusBadRequest, Message: msg, Cause: cause}
}

func newValidationFailure(errs []FieldError, cause error) *Failure {
	return &Failure{
		Kind:    ValidationFailure,
		Status:  http.StatusBadRequest,
		Message: MessageValidation,
		Errors:  errs,
		Cause:   cause,
	}
}

func newInternalFailure(cause error) *Failure {
	return &Failure{
		Kind:    InternalFailure,
		Status:  http.StatusInternalServerError,
		Message: MessageInternal,
		Cause:   cause,
	}
}

// Classify turns any error into a [Failure]. Validation errors come first, then errors that
// carry a status [Code], everything else is an internal failure.
func Classify(err error) *Failure {
	var (
		failure *Failure
		verr    *ValidationError
		verrs   validator.ValidationErrors
	)

	switch {
	case errors.As(err, &failure):
		return failure
	case errors.As(err, &verr):
		return newValidationFailure(verr.Errors, err)
	case errors.As(err, &verrs):
		return newValidationFailure(fieldErrors(verrs), err)
	}

	if coded, ok := asError(err); ok {
		status := int(coded.Code())
		if status < 100 || status > 999 {
			return newInternalFailure(err)
		}

		return &Failure{Kind: HTTPFailure, Status: status, Message: coded.Message(), Cause: err}
	}

	return newInternalFailure(err)
}

// FieldError describes one offending field: where it is, what is wrong and a machine
// readable error type.
type FieldError struct {
	Loc  []string `json:"loc" validate:"required"`
	Msg  string   `json:"msg" validate:"required"`
	Type string   `json:"type" validate:"required"`
}

// ValidationError can be returned by handlers, or by the Validate method of a record, to
// reject a request with a list of field errors.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError inits a validation error from field errors.
func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, strings.Join(fe.Loc, ".")+": "+fe.Msg)
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

// HTTPErrorResponse is the body of responses for errors with a status code.
type HTTPErrorResponse struct {
	Code int    `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ValidationErrorResponse is the body of responses for bad requests, errors is null unless
// the fields of the request were validated.
type ValidationErrorResponse struct {
	Code   int          `json:"code" validate:"required"`
	Name   string       `json:"name" validate:"required"`
	Errors []FieldError `json:"errors"`
}
