package authflow

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/oauthflow/pkg/oauth"
)

// DefaultStateTTL bounds how long a user may stay on the provider's consent page.
const DefaultStateTTL = 10 * time.Minute

// StoreOption configures a state store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	now        func() time.Time
	cookieName string
	path       string
	domain     string
	keyPrefix  string
	ttl        time.Duration
	sameSite   http.SameSite
	secure     bool
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		now:        time.Now,
		cookieName: "oauth_state",
		path:       "/",
		keyPrefix:  "oauthflow:state",
		ttl:        DefaultStateTTL,
		sameSite:   http.SameSiteLaxMode,
		secure:     true,
	}
}

// WithTTL sets how long an issued state stays valid. Default: 10 minutes.
func WithTTL(d time.Duration) StoreOption {
	return func(o *storeOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithCookieName sets the cookie name prefix; the provider name is appended.
func WithCookieName(name string) StoreOption {
	return func(o *storeOptions) {
		if name != "" {
			o.cookieName = name
		}
	}
}

// WithCookiePath sets the cookie path. It must cover the callback route.
func WithCookiePath(path string) StoreOption {
	return func(o *storeOptions) {
		o.path = path
	}
}

// WithCookieDomain sets the cookie domain.
func WithCookieDomain(domain string) StoreOption {
	return func(o *storeOptions) {
		o.domain = domain
	}
}

// WithSecure sets the Secure flag. Disable only for plain-HTTP development.
func WithSecure(secure bool) StoreOption {
	return func(o *storeOptions) {
		o.secure = secure
	}
}

// WithKeyPrefix sets the Redis key prefix used by RedisStore.
func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		o.keyPrefix = prefix
	}
}

// WithStoreClock sets the time source used for cookie expiry checks.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the logger for failed flows.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSuccessHandler replaces the default JSON response written after a
// completed flow, e.g. to start a session and redirect.
func WithSuccessHandler(fn func(w http.ResponseWriter, r *http.Request, id *oauth.Identity)) HandlerOption {
	return func(h *Handler) {
		h.onSuccess = fn
	}
}

// WithErrorHandler replaces the default JSON error response.
func WithErrorHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) HandlerOption {
	return func(h *Handler) {
		h.onError = fn
	}
}
