package clinic

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies an API failure. Classification happens exactly once,
// in the gateway client; downstream code inspects the kind and never
// re-classifies.
type ErrorKind string

const (
	// KindUnauthorizedExpired is a 401 whose message indicates the session
	// aged out. Tears down the session for the requesting role.
	KindUnauthorizedExpired ErrorKind = "unauthorized_expired"

	// KindUnauthorizedInvalid is any other 401. It also tears down the
	// session; only the displayed message differs.
	KindUnauthorizedInvalid ErrorKind = "unauthorized_invalid"

	// KindForbidden is a 403: authenticated but not allowed. No session
	// change.
	KindForbidden ErrorKind = "forbidden"

	// KindRateLimited is a 429. No session change; retrying is the
	// caller's decision, never this layer's.
	KindRateLimited ErrorKind = "rate_limited"

	// KindServerError is any 5xx. No session change.
	KindServerError ErrorKind = "server_error"

	// KindValidation is an HTTP 200 carrying success:false, a business
	// rule rejection surfaced through its message.
	KindValidation ErrorKind = "validation"

	// KindUnknown covers transport failures (timeout, unreachable host)
	// and statuses not otherwise classified, which pass through with
	// status and message intact.
	KindUnknown ErrorKind = "unknown"
)

// Sentinel errors for local (pre-wire) failures.
var (
	// ErrNotLoggedIn indicates no token is held for the requesting role.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired indicates the requesting role's token expired
	// before the request went out.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidToken indicates a token that could not be decoded.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("invalid role")
)

// APIError is a classified API failure.
type APIError struct {
	Kind    ErrorKind
	Status  int    // HTTP status; 0 for local and transport failures
	Role    Role   // role the failed request was made as
	Message string // human-readable, suitable for display
	Err     error  // underlying cause, if any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Role, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Role, e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error { return e.Err }

// classifyStatus maps a non-2xx HTTP status and its message to an ErrorKind.
func classifyStatus(status int, message string) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		if strings.Contains(strings.ToLower(message), "expired") {
			return KindUnauthorizedExpired
		}
		return KindUnauthorizedInvalid
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// defaultMessage supplies display text when the response body carried none.
func defaultMessage(kind ErrorKind, status int) string {
	switch kind {
	case KindUnauthorizedExpired:
		return "session expired, please log in again"
	case KindUnauthorizedInvalid:
		return "session is no longer valid, please log in again"
	case KindForbidden:
		return "access denied"
	case KindRateLimited:
		return "too many requests, try again shortly"
	case KindServerError:
		return "server error, try again later"
	default:
		return fmt.Sprintf("unexpected response (HTTP %d)", status)
	}
}

// KindOf returns the classification of err, or KindUnknown for errors that
// did not come from the gateway.
func KindOf(err error) ErrorKind {
	var e *APIError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsAuthError reports whether err is a classified 401 (either subtype) or a
// local not-logged-in/expired abort.
func IsAuthError(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		if e.Kind == KindUnauthorizedExpired || e.Kind == KindUnauthorizedInvalid {
			return true
		}
	}
	return errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotLoggedIn)
}

// IsValidationError reports whether err is a business-rule rejection
// (success:false on HTTP 200).
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidation
}
