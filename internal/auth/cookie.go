package auth

import (
	"net/http"
	"time"
)

// DefaultCookieName names the session cookie when CookieOptions.Name is empty.
const DefaultCookieName = "dealership_session"

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Name   string
	Path   string
	Domain string
	Secure bool
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}

func setCookie(w http.ResponseWriter, o CookieOptions, value string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, o CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.Name,
		Value:    "",
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
