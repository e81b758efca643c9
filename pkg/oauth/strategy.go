package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

// Step is a state of the authorization flow.
type Step int

const (
	StepIdle Step = iota
	StepAuthorizationRequested
	StepCallbackReceived
	StepTokenExchanged
	StepProfileFetched
	StepComplete
	StepFailed
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAuthorizationRequested:
		return "authorization_requested"
	case StepCallbackReceived:
		return "callback_received"
	case StepTokenExchanged:
		return "token_exchanged"
	case StepProfileFetched:
		return "profile_fetched"
	case StepComplete:
		return "complete"
	case StepFailed:
		return "failed"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Authorization is the outcome of BeginAuthorization. The caller redirects
// the user to URL and must keep State until the callback arrives.
type Authorization struct {
	URL   string
	State string
}

// Strategy runs the OAuth2 authorization code flow for one provider.
// It keeps no per-flow state, so one Strategy can serve concurrent flows
// as long as each call gets its own Settings.
type Strategy struct {
	transport Transport
	now       func() time.Time
	newState  func() string
	logger    *slog.Logger
	provider  ProviderConfig
}

// New validates cfg and returns a Strategy for it.
func New(cfg ProviderConfig, opts ...Option) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Strategy{
		provider:  cfg,
		transport: o.transport,
		now:       o.clock,
		newState:  o.newState,
		logger:    o.logger,
	}
	if s.transport == nil {
		s.transport = NewHTTPTransport(o.httpClient)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newState == nil {
		s.newState = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With(slog.String("provider", cfg.Name))

	return s, nil
}

// Name returns the provider identifier.
func (s *Strategy) Name() string {
	return s.provider.Name
}

// Provider returns the provider declaration.
func (s *Strategy) Provider() ProviderConfig {
	return s.provider
}

// BeginAuthorization builds the provider redirect URL. It performs no network
// call. When settings carry no "state", a fresh one is generated.
func (s *Strategy) BeginAuthorization(settings Settings) (*Authorization, error) {
	resolved, err := s.provider.ResolveSettings(settings)
	if err != nil {
		return nil, s.fail(context.Background(), StepIdle, err)
	}

	state := resolved.Lookup("state")
	if state == "" {
		state = s.newState()
		resolved["state"] = String(state)
	}

	u, err := url.Parse(s.provider.Endpoint.AuthURL)
	if err != nil {
		return nil, s.fail(context.Background(), StepIdle, errors.Join(ErrInvalidProvider, err))
	}

	q := u.Query()
	s.provider.AuthParams.apply(q, resolved, " ")
	if !s.provider.AuthParams.has("state") {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	s.logger.Debug("oauth step", slog.String("step", StepAuthorizationRequested.String()))

	return &Authorization{URL: u.String(), State: state}, nil
}

// HandleCallback validates the callback query, exchanges the code, fetches
// the profile and maps it to an Identity. The expected anti-forgery value
// is settings["state"]; when set, the callback state must equal it.
//
// Errors are *FlowError values wrapping ErrConfig, ErrCallback,
// ErrStateMismatch, ErrTokenExchange or ErrProfileFetch.
func (s *Strategy) HandleCallback(ctx context.Context, settings Settings, query url.Values) (*Identity, error) {
	resolved, err := s.provider.ResolveSettings(settings)
	if err != nil {
		return nil, s.fail(ctx, StepAuthorizationRequested, err)
	}

	var profileURL string
	if s.provider.ProfileURL != "" {
		if profileURL, err = s.provider.ResolveProfileURL(resolved); err != nil {
			return nil, s.fail(ctx, StepAuthorizationRequested, err)
		}
	}

	code, err := receiveCallback(resolved.Lookup("state"), query)
	if err != nil {
		return nil, s.fail(ctx, StepAuthorizationRequested, err)
	}
	s.step(ctx, StepCallbackReceived)

	creds, err := s.exchange(ctx, resolved, code)
	if err != nil {
		return nil, s.fail(ctx, StepCallbackReceived, err)
	}
	s.step(ctx, StepTokenExchanged)

	raw, err := s.fetchProfile(ctx, ProfileRequest{
		URL:         profileURL,
		AccessToken: creds.Token,
		Settings:    resolved,
	})
	if err != nil {
		return nil, s.fail(ctx, StepTokenExchanged, err)
	}
	if len(raw) == 0 {
		s.logger.WarnContext(ctx, "oauth profile is empty, identity fields will be absent")
	}
	s.step(ctx, StepProfileFetched)

	id, err := mapIdentity(raw, s.provider.ResponseMap)
	if err != nil {
		s.logger.WarnContext(ctx, "oauth profile mapped partially", slog.Any("error", err))
	}
	id.Provider = s.provider.Name
	id.Credentials = creds

	if hook := s.provider.Hooks.PostProcess; hook != nil {
		if err := hook(ctx, id); err != nil {
			return nil, s.fail(ctx, StepProfileFetched, errors.Join(ErrProfileFetch, err))
		}
	}
	s.step(ctx, StepComplete)

	return id, nil
}

func receiveCallback(expectedState string, query url.Values) (string, error) {
	if code := query.Get("error"); code != "" {
		return "", &CallbackError{
			Code:        code,
			Description: query.Get("error_description"),
			URI:         query.Get("error_uri"),
		}
	}

	if expectedState != "" && subtle.ConstantTimeCompare([]byte(query.Get("state")), []byte(expectedState)) != 1 {
		return "", errors.Join(ErrStateMismatch, errors.New("callback state does not match the issued state"))
	}

	code := query.Get("code")
	if code == "" {
		return "", &CallbackError{Code: "missing_code", Description: "callback carries no authorization code"}
	}
	return code, nil
}

func (s *Strategy) exchange(ctx context.Context, settings Settings, code string) (Credentials, error) {
	buildForm := s.provider.Hooks.CallbackParams
	if buildForm == nil {
		buildForm = CallbackParams
	}
	parse := s.provider.Hooks.ParseToken
	if parse == nil {
		parse = ParseTokenResponse
	}

	resp, err := s.transport.Post(ctx, s.provider.Endpoint.TokenURL, buildForm(s.provider, settings, code), nil)
	received := s.now()
	if err != nil {
		return Credentials{}, errors.Join(ErrTokenExchange, fmt.Errorf("post token: %w", err))
	}
	if resp == nil {
		return Credentials{}, errors.Join(ErrTokenExchange, ErrNilResponse)
	}
	if !resp.OK() {
		return Credentials{}, errors.Join(ErrTokenExchange, newResponseError(resp))
	}
	// Some providers report errors with a 200 status.
	if re := newResponseError(resp); re.Code != "" {
		return Credentials{}, errors.Join(ErrTokenExchange, re)
	}

	tr, err := parse(resp.Body)
	if err != nil {
		return Credentials{}, errors.Join(ErrTokenExchange, err)
	}

	return newCredentials(tr, received), nil
}

func (s *Strategy) fetchProfile(ctx context.Context, req ProfileRequest) (profile.RawProfile, error) {
	fetch := s.provider.Hooks.FetchProfile
	if fetch == nil {
		fetch = FetchProfile
	}

	raw, err := fetch(ctx, s.transport, s.provider, req)
	if err != nil {
		if errors.Is(err, ErrProfileFetch) {
			return nil, err
		}
		return nil, errors.Join(ErrProfileFetch, err)
	}
	if raw == nil {
		raw = profile.RawProfile{}
	}
	return raw, nil
}

func (s *Strategy) step(ctx context.Context, st Step) {
	s.logger.DebugContext(ctx, "oauth step", slog.String("step", st.String()))
}

func (s *Strategy) fail(ctx context.Context, at Step, err error) error {
	s.logger.WarnContext(ctx, "oauth flow failed",
		slog.String("step", at.String()),
		slog.Any("error", err),
	)
	return &FlowError{Step: at, Err: err}
}

// CallbackParams is the default token request form: grant_type, code and the
// provider's TokenParams aliases.
func CallbackParams(cfg ProviderConfig, settings Settings, code string) url.Values {
	form := url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	}
	cfg.TokenParams.apply(form, settings, " ")
	return form
}

// FetchProfile is the default profile fetch: one GET carrying the access token,
// the body normalized per cfg.ProfileFormat (or the response Content-Type).
// A body that fails to parse yields an empty profile, not an error.
func FetchProfile(ctx context.Context, t Transport, cfg ProviderConfig, req ProfileRequest) (profile.RawProfile, error) {
	resp, err := getProfile(ctx, t, cfg, req.URL, req.AccessToken)
	if err != nil {
		return nil, err
	}

	format := cfg.ProfileFormat
	if format == "" || format == profile.FormatAuto {
		format = profile.FormatFromContentType(resp.Header.Get("Content-Type"))
	}
	return profile.Normalize(resp.Body, format), nil
}

// getProfile performs an authenticated GET and checks the status code.
func getProfile(ctx context.Context, t Transport, cfg ProviderConfig, endpoint, token string) (*Response, error) {
	query := url.Values{}
	header := http.Header{}
	if cfg.ProfileTokenInHeader {
		header.Set("Authorization", "Bearer "+token)
	} else {
		query.Set(cfg.profileTokenParam(), token)
	}

	resp, err := t.Get(ctx, endpoint, query, header)
	if err != nil {
		return nil, errors.Join(ErrProfileFetch, fmt.Errorf("get profile: %w", err))
	}
	if resp == nil {
		return nil, errors.Join(ErrProfileFetch, ErrNilResponse)
	}
	if !resp.OK() {
		return nil, errors.Join(ErrProfileFetch, newResponseError(resp))
	}
	return resp, nil
}

// newResponseError extracts the provider's error code and message from a
// JSON or XML body, when there is one.
func newResponseError(resp *Response) *ResponseError {
	re := &ResponseError{StatusCode: resp.StatusCode}

	raw := profile.Normalize(resp.Body, profile.FormatFromContentType(resp.Header.Get("Content-Type")))
	if v, ok := fieldmap.Resolve(raw, "error"); ok {
		re.Code, _ = scalarString(v)
	}
	for _, path := range []string{"error_description", "message", "error.message"} {
		if v, ok := fieldmap.Resolve(raw, path); ok {
			if d, ok := scalarString(v); ok {
				re.Description = d
				break
			}
		}
	}
	return re
}
