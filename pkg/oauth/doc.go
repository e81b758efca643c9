// Package oauth implements a generic OAuth2 authorization code client flow
// that normalizes any provider's profile into one Identity shape.
//
// A provider is plain data: a ProviderConfig lists the settings it needs,
// how settings are renamed on the wire, its endpoints, and a response map
// from canonical fields to provider profile paths. A Strategy runs the flow
// for one ProviderConfig:
//
//	idle -> authorization_requested -> callback_received -> token_exchanged -> profile_fetched -> complete
//
// with any step able to end in failed. Each network step is a single
// blocking call; nothing is retried and nothing is cached.
//
// # Usage
//
//	strategy, err := oauth.New(oauth.LinkedIn(), oauth.WithLogger(log))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	settings := oauth.Settings{
//		"api_key":      oauth.String(os.Getenv("LINKEDIN_OAUTH_API_KEY")),
//		"secret_key":   oauth.String(os.Getenv("LINKEDIN_OAUTH_SECRET_KEY")),
//		"redirect_uri": oauth.String("https://example.com/auth/linkedin/callback"),
//	}
//
//	// Redirect step: no network call. Keep auth.State (cookie, session).
//	auth, err := strategy.BeginAuthorization(settings)
//	http.Redirect(w, r, auth.URL, http.StatusFound)
//
//	// Callback step: pass the issued state back in the settings.
//	id, err := strategy.HandleCallback(ctx, settings.With("state", oauth.String(state)), r.URL.Query())
//
// # Providers
//
// LinkedIn, GitHub and Google are declared in this package. Further providers
// can be declared in Go or loaded from YAML with LoadProviders. Behavior that
// data cannot express goes into Hooks (token form, token parsing, profile
// fetch, post-processing).
//
// A ProfileURL may embed settings as {name} placeholders. List values render
// as a parenthesized, comma-separated selector:
//
//	https://api.linkedin.com/v1/people/~:{profile_fields}
//	=> https://api.linkedin.com/v1/people/~:(id,first-name,last-name)
//
// # Error Handling
//
// Every failure returned by BeginAuthorization and HandleCallback is a
// *FlowError carrying the step reached, and wraps one of:
//
//   - ErrConfig: a required setting is missing (no request was sent)
//   - ErrCallback: the provider reported an error, see *CallbackError
//   - ErrStateMismatch: the callback state differs from the issued one
//   - ErrTokenExchange: the code could not be exchanged
//   - ErrProfileFetch: the profile could not be retrieved
//
// HTTP-level failures also carry a *ResponseError with the status code and
// provider message:
//
//	var re *oauth.ResponseError
//	if errors.Is(err, oauth.ErrTokenExchange) && errors.As(err, &re) {
//		log.Printf("token endpoint said %d: %s", re.StatusCode, re.Description)
//	}
//
// A profile body that cannot be parsed, or a response map path that the
// profile lacks, is not an error: the affected Identity fields are empty.
//
// # Testing
//
// Use WithHTTPClient or WithTransport to point the strategy at a test server,
// and WithClock to pin credential expiry.
package oauth
