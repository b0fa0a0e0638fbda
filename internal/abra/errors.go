package abra

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindAPI covers any non-success status not claimed by a more specific
	// kind, and malformed bodies on otherwise successful responses.
	KindAPI ErrorKind = iota
	// KindAuth means the server rejected the credentials (401/403).
	KindAuth
	// KindNotFound means the addressed resource does not exist (404).
	KindNotFound
	// KindValidation means the server rejected the request as malformed (400).
	KindValidation
	// KindTransport means the request never produced a classifiable HTTP
	// response: timeout, DNS failure, refused or reset connection.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "authentication"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	default:
		return "api"
	}
}

// Error is a classified API failure. Status is the HTTP status code when one
// was received, 0 for transport failures.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("authentication failed: %d %s", e.Status, e.Message)
	case KindNotFound:
		return fmt.Sprintf("resource not found: %s", e.Message)
	case KindValidation:
		return fmt.Sprintf("validation error: %s", e.Message)
	case KindTransport:
		if e.Err != nil {
			return fmt.Sprintf("transport error: %v", e.Err)
		}
		return fmt.Sprintf("transport error: %s", e.Message)
	default:
		if e.Status != 0 {
			return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
		}
		return fmt.Sprintf("API error: %s", e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or (0, false) when err is not a
// classified API error.
func KindOf(err error) (ErrorKind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

// IsNotFound reports whether err is a NotFound-classified API error.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

// IsAuth reports whether err is an authentication-classified API error.
func IsAuth(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindAuth
}

// IsValidation reports whether err is a validation-classified API error.
func IsValidation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindValidation
}

// IsTransport reports whether err is a transport-classified API error.
func IsTransport(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTransport
}

// classifyStatus maps a non-2xx response to an Error. target is included in
// not-found messages so the caller sees which URL missed.
func classifyStatus(status int, body, target string) *Error {
	switch {
	case status == 401 || status == 403:
		return &Error{Kind: KindAuth, Status: status, Message: body}
	case status == 404:
		return &Error{Kind: KindNotFound, Status: status, Message: target}
	case status == 400:
		return &Error{Kind: KindValidation, Status: status, Message: body}
	default:
		return &Error{Kind: KindAPI, Status: status, Message: body}
	}
}
