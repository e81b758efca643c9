package oauth

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Strategy.
type Option func(*options)

type options struct {
	httpClient *http.Client
	transport  Transport
	clock      func() time.Time
	logger     *slog.Logger
	newState   func() string
}

// WithHTTPClient sets a custom HTTP client for provider requests.
// This is useful for testing with httptest servers or injecting
// custom transports (e.g., logging, timeouts). Ignored when WithTransport is set.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTransport replaces the HTTP collaborator entirely.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithClock sets the time source used to stamp credential expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithLogger sets the logger used for step transitions and failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStateGenerator sets the function producing anti-forgery state values
// when the settings carry none.
func WithStateGenerator(fn func() string) Option {
	return func(o *options) {
		o.newState = fn
	}
}
