package oauth

import (
	"context"

	googleOAuth "golang.org/x/oauth2/google"

	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

const (
	// GoogleProviderName is the identifier for Google OAuth provider.
	GoogleProviderName = "google"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleDefaultScopes returns the default scopes for Google OAuth.
func GoogleDefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
}

// Google declares the Google OAuth provider.
// The flow fails with ErrEmailNotVerified if Google reports an unverified email.
func Google() ProviderConfig {
	return ProviderConfig{
		Name:     GoogleProviderName,
		Required: []string{"client_id", "client_secret"},
		Optional: []string{"scope", "state", "response_type", "redirect_uri", "access_type", "prompt"},
		Defaults: Settings{
			"response_type": String("code"),
			"scope":         List(GoogleDefaultScopes()...),
		},
		ResponseMap: fieldmap.Table{
			{To: "uid", From: "id"},
			{To: "name", From: "name"},
			{To: "info.name", From: "name"},
			{To: "info.first_name", From: "given_name"},
			{To: "info.last_name", From: "family_name"},
			{To: "info.email", From: "email"},
			{To: "info.image", From: "picture"},
			{To: "info.urls.google", From: "link"},
		},
		Endpoint:             googleOAuth.Endpoint,
		ProfileURL:           googleUserInfoURL,
		ProfileFormat:        profile.FormatJSON,
		ProfileTokenInHeader: true,
		AuthParams:           Same("client_id", "state", "response_type", "scope", "redirect_uri", "access_type", "prompt"),
		TokenParams:          Same("client_id", "client_secret", "redirect_uri"),
		Hooks: Hooks{
			PostProcess: requireGoogleVerifiedEmail,
		},
	}
}

func requireGoogleVerifiedEmail(_ context.Context, id *Identity) error {
	verified, ok := fieldmap.Resolve(id.Raw, "verified_email")
	if !ok || verified != true {
		return ErrEmailNotVerified
	}
	return nil
}
