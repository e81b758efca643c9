package authflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthflow/pkg/authflow"
	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/oauth"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

// providerServer emulates an OAuth2 provider with a JSON profile endpoint.
func providerServer(t *testing.T, tokenStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			_, _ = w.Write([]byte(`{"error":"server_error"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + r.FormValue("code"),
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u-1","email":"jane@x.com","name":"Jane"}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func acmeProvider(baseURL string) oauth.ProviderConfig {
	return oauth.ProviderConfig{
		Name:     "acme",
		Required: []string{"client_id", "client_secret"},
		Optional: []string{"state", "redirect_uri"},
		ResponseMap: fieldmap.Table{
			{To: "uid", From: "id"},
			{To: "name", From: "name"},
			{To: "info.email", From: "email"},
		},
		Endpoint:             oauth2.Endpoint{AuthURL: baseURL + "/authorize", TokenURL: baseURL + "/token"},
		ProfileURL:           baseURL + "/me",
		ProfileFormat:        profile.FormatJSON,
		ProfileTokenInHeader: true,
		AuthParams:           oauth.Same("client_id", "state", "redirect_uri"),
		TokenParams:          oauth.Same("client_id", "client_secret", "redirect_uri"),
	}
}

func acmeSettings() oauth.Settings {
	return oauth.Settings{
		"client_id":     oauth.String("cid"),
		"client_secret": oauth.String("csecret"),
		"redirect_uri":  oauth.String("https://app.example.com/auth/acme/callback"),
	}
}

func newTestHandler(t *testing.T, ts *httptest.Server, opts ...authflow.HandlerOption) http.Handler {
	t.Helper()
	store, err := authflow.NewCookieStore(testSecret)
	require.NoError(t, err)

	s, err := oauth.New(acmeProvider(ts.URL), oauth.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	h := authflow.NewHandler(store, opts...)
	h.Register(s, acmeSettings())
	return h.Routes()
}

// begin runs the redirect step and returns the recorder and issued state.
func begin(t *testing.T, router http.Handler) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/acme", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return rec, state
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) authflow.ErrorResponse {
	t.Helper()
	var resp authflow.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandler_Begin(t *testing.T) {
	t.Parallel()

	ts := providerServer(t, http.StatusOK)
	router := newTestHandler(t, ts)

	rec, state := begin(t, router)

	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, ts.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	require.Equal(t, "cid", u.Query().Get("client_id"))
	require.False(t, u.Query().Has("client_secret"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "oauth_state_acme", cookies[0].Name)

	_, state2 := begin(t, router)
	require.NotEqual(t, state, state2)
}

func TestHandler_Callback(t *testing.T) {
	t.Parallel()

	t.Run("completes the flow", func(t *testing.T) {
		t.Parallel()
		router := newTestHandler(t, providerServer(t, http.StatusOK))
		rec, state := begin(t, router)

		out := httptest.NewRecorder()
		router.ServeHTTP(out, carry(rec, "/acme/callback?code=abc&state="+url.QueryEscape(state)))
		require.Equal(t, http.StatusOK, out.Code)
		require.Equal(t, "application/json", out.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(out.Body).Decode(&body))
		require.Equal(t, "acme", body["provider"])
		require.Equal(t, "u-1", body["uid"])
		require.Equal(t, "Jane", body["name"])
		require.Equal(t, map[string]any{"email": "jane@x.com"}, body["info"])
		require.Equal(t, "tok-abc", body["credentials"].(map[string]any)["token"])
	})

	t.Run("forged state", func(t *testing.T) {
		t.Parallel()
		router := newTestHandler(t, providerServer(t, http.StatusOK))
		rec, _ := begin(t, router)

		out := httptest.NewRecorder()
		router.ServeHTTP(out, carry(rec, "/acme/callback?code=abc&state=forged"))
		require.Equal(t, http.StatusBadRequest, out.Code)
		require.Equal(t, "invalid_state", decodeError(t, out).Error)
	})

	t.Run("no pending state", func(t *testing.T) {
		t.Parallel()
		router := newTestHandler(t, providerServer(t, http.StatusOK))

		out := httptest.NewRecorder()
		router.ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/acme/callback?code=abc&state=x", nil))
		require.Equal(t, http.StatusBadRequest, out.Code)
		require.Equal(t, "invalid_state", decodeError(t, out).Error)
	})

	t.Run("user denied access", func(t *testing.T) {
		t.Parallel()
		router := newTestHandler(t, providerServer(t, http.StatusOK))
		rec, state := begin(t, router)

		out := httptest.NewRecorder()
		router.ServeHTTP(out, carry(rec, "/acme/callback?error=access_denied&error_description=denied&state="+url.QueryEscape(state)))
		require.Equal(t, http.StatusBadRequest, out.Code)

		resp := decodeError(t, out)
		require.Equal(t, "access_denied", resp.Error)
		require.Equal(t, "denied", resp.Description)
		require.Equal(t, oauth.StepAuthorizationRequested.String(), resp.Step)
	})

	t.Run("denial without pending state wraps both errors", func(t *testing.T) {
		t.Parallel()
		var gotErr error
		router := newTestHandler(t, providerServer(t, http.StatusOK),
			authflow.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				gotErr = err
				w.WriteHeader(authflow.StatusCode(err))
			}),
		)

		out := httptest.NewRecorder()
		router.ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/acme/callback?error=access_denied&error_description=denied&state=x", nil))
		require.Equal(t, http.StatusBadRequest, out.Code)
		require.ErrorIs(t, gotErr, authflow.ErrStateNotFound)

		var ce *oauth.CallbackError
		require.ErrorAs(t, gotErr, &ce)
		require.Equal(t, "access_denied", ce.Code)
		require.Equal(t, "denied", ce.Description)
	})

	t.Run("denial without pending state keeps provider error", func(t *testing.T) {
		t.Parallel()
		router := newTestHandler(t, providerServer(t, http.StatusOK))

		out := httptest.NewRecorder()
		router.ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/acme/callback?error=access_denied&error_description=denied", nil))
		require.Equal(t, http.StatusBadRequest, out.Code)

		resp := decodeError(t, out)
		require.Equal(t, "access_denied", resp.Error)
		require.Equal(t, "denied", resp.Description)
	})

	t.Run("token endpoint failure", func(t *testing.T) {
		t.Parallel()
		router := newTestHandler(t, providerServer(t, http.StatusInternalServerError))
		rec, state := begin(t, router)

		out := httptest.NewRecorder()
		router.ServeHTTP(out, carry(rec, "/acme/callback?code=abc&state="+url.QueryEscape(state)))
		require.Equal(t, http.StatusBadGateway, out.Code)
		require.Equal(t, "token_exchange_failed", decodeError(t, out).Error)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		router := newTestHandler(t, providerServer(t, http.StatusOK))

		for _, target := range []string{"/nope", "/nope/callback"} {
			out := httptest.NewRecorder()
			router.ServeHTTP(out, httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, http.StatusNotFound, out.Code)
			require.Equal(t, "unknown_provider", decodeError(t, out).Error)
		}
	})

	t.Run("custom handlers", func(t *testing.T) {
		t.Parallel()
		var (
			gotID  *oauth.Identity
			gotErr error
		)
		router := newTestHandler(t, providerServer(t, http.StatusOK),
			authflow.WithSuccessHandler(func(w http.ResponseWriter, r *http.Request, id *oauth.Identity) {
				gotID = id
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			}),
			authflow.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				gotErr = err
				w.WriteHeader(http.StatusTeapot)
			}),
		)

		rec, state := begin(t, router)
		out := httptest.NewRecorder()
		router.ServeHTTP(out, carry(rec, "/acme/callback?code=abc&state="+url.QueryEscape(state)))
		require.Equal(t, http.StatusSeeOther, out.Code)
		require.Equal(t, "u-1", gotID.UID)

		out = httptest.NewRecorder()
		router.ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/acme/callback", nil))
		require.Equal(t, http.StatusTeapot, out.Code)
		require.ErrorIs(t, gotErr, authflow.ErrStateNotFound)
	})
}

func TestHandler_MountedUnderPrefix(t *testing.T) {
	t.Parallel()

	ts := providerServer(t, http.StatusOK)
	store, err := authflow.NewCookieStore(testSecret)
	require.NoError(t, err)
	s, err := oauth.New(acmeProvider(ts.URL), oauth.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	h := authflow.NewHandler(store)
	h.Register(s, acmeSettings())
	require.Equal(t, []string{"acme"}, h.Providers())

	r := chi.NewRouter()
	r.Mount("/auth", h.Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/acme", nil))
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestHandler_ConcurrentFlows(t *testing.T) {
	t.Parallel()

	router := newTestHandler(t, providerServer(t, http.StatusOK))

	var wg sync.WaitGroup
	codes := make([]int, 10)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/acme", nil))
			u, err := url.Parse(rec.Header().Get("Location"))
			if err != nil {
				return
			}
			out := httptest.NewRecorder()
			target := fmt.Sprintf("/acme/callback?code=c%d&state=%s", i, url.QueryEscape(u.Query().Get("state")))
			router.ServeHTTP(out, carry(rec, target))
			codes[i] = out.Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		require.Equal(t, http.StatusOK, code)
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, http.ResponseWriter, string, string) error {
	return errors.New("store unavailable")
}

func (failingStore) Take(context.Context, http.ResponseWriter, *http.Request, string) (string, error) {
	return "", errors.New("store unavailable")
}

func TestHandler_StoreFailure(t *testing.T) {
	t.Parallel()

	ts := providerServer(t, http.StatusOK)
	s, err := oauth.New(acmeProvider(ts.URL))
	require.NoError(t, err)

	h := authflow.NewHandler(failingStore{})
	h.Register(s, acmeSettings())

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/acme", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "server_error", decodeError(t, rec).Error)
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{authflow.ErrUnknownProvider, http.StatusNotFound},
		{authflow.ErrStateNotFound, http.StatusBadRequest},
		{&oauth.FlowError{Err: &oauth.CallbackError{Code: "access_denied"}}, http.StatusBadRequest},
		{&oauth.FlowError{Err: oauth.ErrStateMismatch}, http.StatusBadRequest},
		{&oauth.FlowError{Err: errors.Join(oauth.ErrProfileFetch, oauth.ErrEmailNotVerified)}, http.StatusForbidden},
		{&oauth.FlowError{Err: oauth.ErrTokenExchange}, http.StatusBadGateway},
		{&oauth.FlowError{Err: oauth.ErrProfileFetch}, http.StatusBadGateway},
		{&oauth.FlowError{Err: oauth.ErrConfig}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, authflow.StatusCode(tt.err), "%v", tt.err)
	}
}
