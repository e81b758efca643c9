// Package authflow exposes oauth strategies over HTTP.
//
// A [Handler] serves two routes per registered provider on a chi router:
//
//	GET /{provider}           redirects the browser to the provider
//	GET /{provider}/callback  completes the flow and reports the identity
//
// The anti-forgery state issued on the first request has to survive the
// round trip through the provider. A [StateStore] keeps it in between:
// [CookieStore] signs it into a short-lived cookie, [RedisStore] keeps it
// server-side under a one-time key and sets only an opaque flow id cookie.
//
// Usage:
//
//	store, err := authflow.NewCookieStore(os.Getenv("STATE_SECRET"))
//	if err != nil {
//		return err
//	}
//
//	h := authflow.NewHandler(store, authflow.WithLogger(log))
//	gh, _ := oauth.New(oauth.GitHub())
//	h.Register(gh, oauth.GitHubConfig{...}.Settings())
//
//	r := chi.NewRouter()
//	r.Mount("/auth", h.Routes())
//
// Errors are written as JSON with a status derived from the failure: 400 for
// callback and state problems, 403 for unverified emails, 502 for provider
// failures and 500 otherwise. See [StatusCode].
package authflow
