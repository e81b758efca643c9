package authflow

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/oauthflow/pkg/oauth"
)

type registration struct {
	strategy *oauth.Strategy
	settings oauth.Settings
}

// Handler serves the redirect and callback routes for registered providers.
// It is safe for concurrent use.
type Handler struct {
	store     StateStore
	logger    *slog.Logger
	onSuccess func(w http.ResponseWriter, r *http.Request, id *oauth.Identity)
	onError   func(w http.ResponseWriter, r *http.Request, err error)
	providers map[string]registration
	mu        sync.RWMutex
}

// NewHandler returns a Handler keeping issued states in store.
func NewHandler(store StateStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:     store,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		providers: make(map[string]registration),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.onSuccess == nil {
		h.onSuccess = writeIdentity
	}
	if h.onError == nil {
		h.onError = writeError
	}
	return h
}

// Register makes s reachable under its provider name, using settings for
// every flow. A later registration with the same name replaces the earlier one.
func (h *Handler) Register(s *oauth.Strategy, settings oauth.Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.providers[s.Name()] = registration{strategy: s, settings: settings.Clone()}
}

// Providers returns the registered provider names in sorted order.
func (h *Handler) Providers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.providers))
	for name := range h.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Routes returns a router with the redirect and callback routes.
// Mount it under a prefix such as /auth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{provider}", h.Begin)
	r.Get("/{provider}/callback", h.Callback)
	return r
}

// Begin saves a fresh state and redirects to the provider's authorize URL.
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	reg, ok := h.lookup(name)
	if !ok {
		h.fail(w, r, name, ErrUnknownProvider)
		return
	}

	settings := reg.settings.Clone()
	delete(settings, "state")

	auth, err := reg.strategy.BeginAuthorization(settings)
	if err != nil {
		h.fail(w, r, name, err)
		return
	}
	if err := h.store.Save(r.Context(), w, name, auth.State); err != nil {
		h.fail(w, r, name, err)
		return
	}

	http.Redirect(w, r, auth.URL, http.StatusFound)
}

// Callback takes the pending state and completes the flow.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	reg, ok := h.lookup(name)
	if !ok {
		h.fail(w, r, name, ErrUnknownProvider)
		return
	}

	state, err := h.store.Take(r.Context(), w, r, name)
	if err != nil {
		// A provider denial still names its own error when the state is gone.
		if q := r.URL.Query(); q.Get("error") != "" {
			err = errors.Join(&oauth.CallbackError{
				Code:        q.Get("error"),
				Description: q.Get("error_description"),
				URI:         q.Get("error_uri"),
			}, err)
		}
		h.fail(w, r, name, err)
		return
	}

	id, err := reg.strategy.HandleCallback(r.Context(), reg.settings.With("state", oauth.String(state)), r.URL.Query())
	if err != nil {
		h.fail(w, r, name, err)
		return
	}

	h.logger.InfoContext(r.Context(), "oauth flow completed",
		slog.String("provider", name),
		slog.String("uid", id.UID),
	)
	h.onSuccess(w, r, id)
}

func (h *Handler) lookup(name string) (registration, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	reg, ok := h.providers[name]
	return reg, ok
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, provider string, err error) {
	attrs := []any{
		slog.String("provider", provider),
		slog.Int("status", StatusCode(err)),
		slog.Any("error", err),
	}
	if StatusCode(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "oauth flow failed", attrs...)
	} else {
		h.logger.WarnContext(r.Context(), "oauth flow rejected", attrs...)
	}
	h.onError(w, r, err)
}

// StatusCode maps a flow error to the HTTP status reported to the browser.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, ErrStateNotFound),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, oauth.ErrCallback),
		errors.Is(err, oauth.ErrStateMismatch):
		return http.StatusBadRequest
	case errors.Is(err, oauth.ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, oauth.ErrTokenExchange),
		errors.Is(err, oauth.ErrProfileFetch):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body written for failed flows.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Step        string `json:"step,omitempty"`
}

func writeError(w http.ResponseWriter, _ *http.Request, err error) {
	status := StatusCode(err)
	resp := ErrorResponse{Error: errorCode(err)}

	var ce *oauth.CallbackError
	if errors.As(err, &ce) {
		resp.Description = ce.Description
	}
	var fe *oauth.FlowError
	if errors.As(err, &fe) {
		resp.Step = fe.Step.String()
	}

	writeJSON(w, status, resp)
}

func errorCode(err error) string {
	var ce *oauth.CallbackError
	switch {
	case errors.As(err, &ce):
		return ce.Code
	case errors.Is(err, ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, ErrStateNotFound), errors.Is(err, ErrInvalidState), errors.Is(err, oauth.ErrStateMismatch):
		return "invalid_state"
	case errors.Is(err, oauth.ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, oauth.ErrTokenExchange):
		return "token_exchange_failed"
	case errors.Is(err, oauth.ErrProfileFetch):
		return "profile_fetch_failed"
	}
	return "server_error"
}

func writeIdentity(w http.ResponseWriter, _ *http.Request, id *oauth.Identity) {
	writeJSON(w, http.StatusOK, id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
