package session

import (
	"context"
	"net/http"
	"time"

	"github.com/MrJamesThe3rd/fiore/internal/http/gate"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
)

const TokenCookie = "accessToken"

// Tokens is an invoicing.TokenStore backed by the accessToken cookie of one
// request/response pair.
type Tokens struct {
	w     http.ResponseWriter
	token string
}

var _ invoicing.TokenStore = (*Tokens)(nil)

func NewTokens(w http.ResponseWriter, r *http.Request) *Tokens {
	t := &Tokens{w: w}

	if c, err := r.Cookie(TokenCookie); err == nil {
		t.token = c.Value
	}

	return t
}

func (t *Tokens) Token(_ context.Context) (string, error) {
	return t.token, nil
}

func (t *Tokens) SetToken(_ context.Context, token string) error {
	t.token = token

	http.SetCookie(t.w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Request returns the invoicing request state for r: its cookies are
// forwarded upstream and the bearer token comes from the accessToken cookie.
func Request(w http.ResponseWriter, r *http.Request) invoicing.Request {
	return invoicing.Request{
		Cookies: forwardable(r.Cookies()),
		Tokens:  NewTokens(w, r),
	}
}

// forwardable drops the cookies that only this server reads.
func forwardable(cookies []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))

	for _, c := range cookies {
		if c.Name == TokenCookie {
			continue
		}

		out = append(out, c)
	}

	return out
}

// Start marks the browser as logged in.
func Start(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     gate.CookieName,
		Value:    "true",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

// End clears the session and token cookies.
func End(w http.ResponseWriter) {
	for _, name := range []string{gate.CookieName, TokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Unix(0, 0),
		})
	}
}
