// Package identity owns the per-user "uid" token sent with every backend request.
package identity

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"hydratutor/internal/constants"
)

// Identity is the token plus whether it existed before this run.
type Identity struct {
	Token     string
	Returning bool
}

// Jar persists cookies between runs.
type Jar interface {
	Cookie(name string) (*http.Cookie, bool)
	SetCookie(c *http.Cookie) error
}

// NewToken returns 32 lowercase hex characters.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Ensure returns the token stored in jar, creating and persisting one when
// none is present. An existing token is never replaced.
func Ensure(jar Jar) (Identity, error) {
	if c, ok := jar.Cookie(constants.IdentityCookieName); ok && c.Value != "" {
		return Identity{Token: c.Value, Returning: true}, nil
	}

	token := NewToken()
	if err := jar.SetCookie(NewCookie(token)); err != nil {
		return Identity{}, err
	}
	return Identity{Token: token}, nil
}

func NewCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     constants.IdentityCookieName,
		Value:    token,
		Path:     constants.IdentityCookiePath,
		Expires:  time.Now().Add(constants.IdentityCookieLifetime),
		SameSite: constants.IdentityCookieSameSite,
	}
}

func expired(c *http.Cookie, now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}
