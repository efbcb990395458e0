package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for consistent error handling across the client, the gateway and the CLI.

// ErrInitialization indicates the application lookup failed while constructing a client.
// Payload carries the raw platform response (or the transport error text).
type ErrInitialization struct {
	Payload string
	Err     error
}

func (e *ErrInitialization) Error() string {
	if e.Payload != "" {
		return fmt.Sprintf("wecom client initialization failed: %s", e.Payload)
	}
	return fmt.Sprintf("wecom client initialization failed: %v", e.Err)
}

func (e *ErrInitialization) Unwrap() error {
	return e.Err
}

// ErrAPI indicates the platform answered with a non-zero errcode.
// Raw holds the response body as received.
type ErrAPI struct {
	Path    string
	Code    int
	Message string
	Raw     string
}

func (e *ErrAPI) Error() string {
	return fmt.Sprintf("wecom api error [%s]: errcode=%d errmsg=%s", e.Path, e.Code, e.Message)
}

// ErrExternalService indicates a failure in an external service call
// (transport failure, unexpected HTTP status, undecodable body).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrInvalidRecipients indicates caller-supplied addressing violates a bound.
// Channel is empty when every channel was empty.
type ErrInvalidRecipients struct {
	Channel string
	Limit   int
	Got     int
}

func (e *ErrInvalidRecipients) Error() string {
	if e.Channel == "" {
		return "invalid recipients: touser, toparty and totag are all empty"
	}
	return fmt.Sprintf("invalid recipients: %s must have at most %d entries, got %d", e.Channel, e.Limit, e.Got)
}

// ErrFileNotFound indicates a local upload source does not exist.
type ErrFileNotFound struct {
	Path string
}

func (e *ErrFileNotFound) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates an invalid or missing gateway token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// Kind classifies an error returned by any operation of this module.
type Kind string

const (
	KindNone              Kind = ""
	KindInitialization    Kind = "initialization"
	KindAPI               Kind = "api"
	KindTransport         Kind = "transport"
	KindInvalidRecipients Kind = "invalid_recipients"
	KindFileNotFound      Kind = "file_not_found"
	KindValidation        Kind = "validation"
	KindCircuitOpen       Kind = "circuit_open"
	KindUnknown           Kind = "unknown"
)

// KindOf walks the error chain and reports the first recognized kind.
// ErrAPI wins over ErrExternalService so a business error wrapped by a
// transport layer is still reported as such.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		apiErr        *ErrAPI
		recipientsErr *ErrInvalidRecipients
		notFound      *ErrFileNotFound
		validation    *ErrValidation
		circuitOpen   *ErrCircuitOpen
		initErr       *ErrInitialization
		external      *ErrExternalService
	)

	switch {
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &recipientsErr):
		return KindInvalidRecipients
	case errors.As(err, &notFound):
		return KindFileNotFound
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &circuitOpen):
		return KindCircuitOpen
	case errors.As(err, &initErr):
		return KindInitialization
	case errors.As(err, &external):
		return KindTransport
	}
	return KindUnknown
}

// ErrCode returns the platform errcode carried by err, or 0.
func ErrCode(err error) int {
	var apiErr *ErrAPI
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// joinIDs is used by error messages and payload builders alike.
func joinIDs(ids []string) string {
	return strings.Join(ids, RecipientSeparator)
}
