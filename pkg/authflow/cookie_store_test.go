package authflow_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthflow/pkg/authflow"
)

const testSecret = "this-is-a-32-byte-or-longer-key!"

// carry copies the cookies set on rec onto a fresh request.
func carry(rec *httptest.ResponseRecorder, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}

func TestNewCookieStore(t *testing.T) {
	t.Parallel()

	_, err := authflow.NewCookieStore("short")
	require.ErrorIs(t, err, authflow.ErrNoSecret)

	s, err := authflow.NewCookieStore(testSecret)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestCookieStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("save and take", func(t *testing.T) {
		t.Parallel()
		s, err := authflow.NewCookieStore(testSecret)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		require.NoError(t, s.Save(ctx, rec, "github", "state-1"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "oauth_state_github", cookies[0].Name)
		require.True(t, cookies[0].HttpOnly)
		require.True(t, cookies[0].Secure)
		require.Equal(t, int(authflow.DefaultStateTTL.Seconds()), cookies[0].MaxAge)
		require.NotContains(t, cookies[0].Value, "state-1")

		out := httptest.NewRecorder()
		state, err := s.Take(ctx, out, carry(rec, "/github/callback"), "github")
		require.NoError(t, err)
		require.Equal(t, "state-1", state)

		cleared := out.Result().Cookies()
		require.Len(t, cleared, 1)
		require.Negative(t, cleared[0].MaxAge)
	})

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()
		s, err := authflow.NewCookieStore(testSecret)
		require.NoError(t, err)

		_, err = s.Take(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "github")
		require.ErrorIs(t, err, authflow.ErrStateNotFound)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		t.Parallel()
		s, err := authflow.NewCookieStore(testSecret)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		require.NoError(t, s.Save(ctx, rec, "github", "state-1"))
		c := rec.Result().Cookies()[0]
		c.Value = "x" + c.Value

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		_, err = s.Take(ctx, httptest.NewRecorder(), req, "github")
		require.ErrorIs(t, err, authflow.ErrInvalidState)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		t.Parallel()
		other, err := authflow.NewCookieStore("another-secret-that-is-32-bytes!!")
		require.NoError(t, err)
		s, err := authflow.NewCookieStore(testSecret)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		require.NoError(t, other.Save(ctx, rec, "github", "state-1"))

		_, err = s.Take(ctx, httptest.NewRecorder(), carry(rec, "/"), "github")
		require.ErrorIs(t, err, authflow.ErrInvalidState)
	})

	t.Run("cookie of another provider", func(t *testing.T) {
		t.Parallel()
		s, err := authflow.NewCookieStore(testSecret)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		require.NoError(t, s.Save(ctx, rec, "github", "state-1"))
		c := rec.Result().Cookies()[0]
		c.Name = "oauth_state_google"

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		_, err = s.Take(ctx, httptest.NewRecorder(), req, "google")
		require.ErrorIs(t, err, authflow.ErrInvalidState)
	})

	t.Run("expired state", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }

		s, err := authflow.NewCookieStore(testSecret,
			authflow.WithTTL(time.Minute),
			authflow.WithStoreClock(clock),
		)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		require.NoError(t, s.Save(ctx, rec, "github", "state-1"))

		later, err := authflow.NewCookieStore(testSecret,
			authflow.WithStoreClock(func() time.Time { return now.Add(2 * time.Minute) }),
		)
		require.NoError(t, err)

		_, err = later.Take(ctx, httptest.NewRecorder(), carry(rec, "/"), "github")
		require.ErrorIs(t, err, authflow.ErrStateNotFound)
	})

	t.Run("custom cookie attributes", func(t *testing.T) {
		t.Parallel()
		s, err := authflow.NewCookieStore(testSecret,
			authflow.WithCookieName("flow"),
			authflow.WithCookiePath("/auth"),
			authflow.WithCookieDomain("example.com"),
			authflow.WithSecure(false),
		)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		require.NoError(t, s.Save(ctx, rec, "linkedin", "st"))

		c := rec.Result().Cookies()[0]
		require.Equal(t, "flow_linkedin", c.Name)
		require.Equal(t, "/auth", c.Path)
		require.Equal(t, "example.com", c.Domain)
		require.False(t, c.Secure)
	})
}
