package authflow

import (
	"context"
	"errors"
	"net/http"
)

// StateStore keeps the issued anti-forgery state between the redirect to the
// provider and the callback. Take must hand out a stored state at most once.
type StateStore interface {
	// Save remembers state for provider, writing any cookie it needs to w.
	Save(ctx context.Context, w http.ResponseWriter, provider, state string) error

	// Take returns and forgets the state saved for provider. It returns
	// ErrStateNotFound when nothing valid is pending.
	Take(ctx context.Context, w http.ResponseWriter, r *http.Request, provider string) (string, error)
}

func (o storeOptions) name(provider string) string {
	return o.cookieName + "_" + provider
}

func (o storeOptions) cookie(provider, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     o.name(provider),
		Value:    value,
		Path:     o.path,
		Domain:   o.domain,
		MaxAge:   maxAge,
		Secure:   o.secure,
		HttpOnly: true,
		SameSite: o.sameSite,
	}
}

func (o storeOptions) readCookie(r *http.Request, provider string) (string, error) {
	c, err := r.Cookie(o.name(provider))
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrStateNotFound
		}
		return "", err
	}
	if c.Value == "" {
		return "", ErrStateNotFound
	}
	return c.Value, nil
}

func (o storeOptions) clearCookie(w http.ResponseWriter, provider string) {
	http.SetCookie(w, o.cookie(provider, "", -1))
}
