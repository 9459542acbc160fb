package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies backend failures for call-site handling.
type Kind string

const (
	KindNotAuthorized Kind = "not_authorized"
	KindNotFound      Kind = "not_found"
	KindBackend       Kind = "backend"
	KindTransport     Kind = "transport"
)

// Error variants returned by the backend in tagged results.
const (
	VariantNotAuthorized     = "NotAuthorized"
	VariantNotFound          = "NotFound"
	VariantUserNotFound      = "UserNotFound"
	VariantGatheringNotFound = "GatheringNotFound"
)

// ErrNoHandle is returned when a remote call is attempted without an
// authenticated identity.
var ErrNoHandle = errors.New("backend: no handle for unauthenticated session")

// Error is a failed remote call.
type Error struct {
	Kind    Kind
	Variant string // tag of the err branch, empty for transport failures
	Method  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Variant != "":
		return fmt.Sprintf("backend %s: %s", e.Method, e.Variant)
	case e.Err != nil:
		return fmt.Sprintf("backend %s: %v", e.Method, e.Err)
	default:
		return fmt.Sprintf("backend %s: %s", e.Method, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func variantError(method, variant string) *Error {
	return &Error{Kind: kindForVariant(variant), Variant: variant, Method: method}
}

func transportError(method string, err error) *Error {
	return &Error{Kind: KindTransport, Method: method, Err: err}
}

func kindForVariant(variant string) Kind {
	switch variant {
	case VariantNotAuthorized:
		return KindNotAuthorized
	case VariantNotFound, VariantUserNotFound, VariantGatheringNotFound:
		return KindNotFound
	default:
		return KindBackend
	}
}

// KindOf returns the failure kind, or "" for nil and non-backend errors.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// VariantOf returns the tagged error variant, if any.
func VariantOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Variant
	}
	return ""
}

// IsNotAuthorized reports a session-expired failure.
func IsNotAuthorized(err error) bool { return KindOf(err) == KindNotAuthorized }

// HTTPStatus maps a failure to the status a page should answer with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNoHandle) {
		return http.StatusUnauthorized
	}
	switch KindOf(err) {
	case KindNotAuthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
