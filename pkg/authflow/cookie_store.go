package authflow

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CookieStore keeps the state in an HMAC-signed cookie bound to the provider
// and an expiry time. It needs no server-side storage; a captured cookie
// stays usable until it expires, so prefer RedisStore when strict one-time
// use matters.
type CookieStore struct {
	secret []byte
	opts   storeOptions
}

// NewCookieStore returns a CookieStore signing with secret, which must be at
// least 32 bytes long.
func NewCookieStore(secret string, opts ...StoreOption) (*CookieStore, error) {
	if len(secret) < 32 {
		return nil, ErrNoSecret
	}

	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &CookieStore{secret: []byte(secret), opts: o}, nil
}

// Save implements StateStore.
func (s *CookieStore) Save(_ context.Context, w http.ResponseWriter, provider, state string) error {
	expires := s.opts.now().Add(s.opts.ttl).Unix()
	payload := provider + "|" + strconv.FormatInt(expires, 10) + "|" + state

	// Format: base64(payload).base64(signature)
	value := base64.RawURLEncoding.EncodeToString([]byte(payload)) +
		"." + base64.RawURLEncoding.EncodeToString(s.sign([]byte(payload)))

	http.SetCookie(w, s.opts.cookie(provider, value, int(s.opts.ttl.Seconds())))
	return nil
}

// Take implements StateStore. The cookie is cleared whether or not it verifies.
func (s *CookieStore) Take(_ context.Context, w http.ResponseWriter, r *http.Request, provider string) (string, error) {
	raw, err := s.opts.readCookie(r, provider)
	if err != nil {
		return "", err
	}
	s.opts.clearCookie(w, provider)

	encPayload, encSig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrInvalidState
	}
	payload, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return "", ErrInvalidState
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", ErrInvalidState
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return "", ErrInvalidState
	}

	parts := strings.SplitN(string(payload), "|", 3)
	if len(parts) != 3 || parts[0] != provider {
		return "", ErrInvalidState
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrInvalidState
	}
	if !s.opts.now().Before(time.Unix(expires, 0)) {
		return "", ErrStateNotFound
	}

	return parts[2], nil
}

func (s *CookieStore) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

var _ StateStore = (*CookieStore)(nil)
