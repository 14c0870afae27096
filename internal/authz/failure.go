package authz

import (
	"errors"
	"net/http"
	"strings"
)

// Kind tags why an authorization check failed.
type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindProfileMissing    Kind = "PROFILE_MISSING"
	KindDeactivated       Kind = "DEACTIVATED"
	KindForbiddenNotAdmin Kind = "FORBIDDEN_NOT_ADMIN"
)

// Status is the HTTP status callers answer with.
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindProfileMissing:
		return http.StatusNotFound
	case KindDeactivated, KindForbiddenNotAdmin:
		return http.StatusForbidden
	default:
		return http.StatusForbidden
	}
}

// Code is the lower-case error code used in JSON bodies and message lookups.
func (k Kind) Code() string { return strings.ToLower(string(k)) }

// Failure is the error every Gate check returns when access is refused.
type Failure struct {
	Kind Kind
}

func (f *Failure) Error() string { return "authz: " + f.Kind.Code() }

func (f *Failure) Status() int { return f.Kind.Status() }

// Sentinel failures, comparable with errors.Is.
var (
	ErrUnauthenticated   = &Failure{Kind: KindUnauthenticated}
	ErrProfileMissing    = &Failure{Kind: KindProfileMissing}
	ErrDeactivated       = &Failure{Kind: KindDeactivated}
	ErrForbiddenNotAdmin = &Failure{Kind: KindForbiddenNotAdmin}
)

// KindOf extracts the failure kind from err.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}
