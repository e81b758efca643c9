package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	githubOAuth "golang.org/x/oauth2/github"

	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

const (
	// GitHubProviderName is the identifier for GitHub OAuth provider.
	GitHubProviderName = "github"
	githubUserURL      = "https://api.github.com/user"
	githubEmailsURL    = "https://api.github.com/user/emails"
)

// GitHubDefaultScopes returns the default scopes for GitHub OAuth.
func GitHubDefaultScopes() []string {
	return []string{"read:user", "user:email"}
}

// GitHub declares the GitHub OAuth provider. GitHub tokens do not expire and
// the primary verified email comes from a second endpoint, so both the token
// parser and the profile fetch are replaced.
func GitHub() ProviderConfig {
	return ProviderConfig{
		Name:     GitHubProviderName,
		Required: []string{"client_id", "client_secret"},
		Optional: []string{"scope", "state", "redirect_uri"},
		Defaults: Settings{
			"scope": List(GitHubDefaultScopes()...),
		},
		ResponseMap: fieldmap.Table{
			{To: "uid", From: "id"},
			{To: "name", From: "name"},
			{To: "info.name", From: "name"},
			{To: "info.email", From: "email"},
			{To: "info.description", From: "bio"},
			{To: "info.location", From: "location"},
			{To: "info.image", From: "avatar_url"},
			{To: "info.urls.github", From: "html_url"},
			{To: "info.urls.blog", From: "blog"},
		},
		Endpoint:             githubOAuth.Endpoint,
		ProfileURL:           githubUserURL,
		ProfileFormat:        profile.FormatJSON,
		ProfileTokenInHeader: true,
		AuthParams:           Same("client_id", "state", "scope", "redirect_uri"),
		TokenParams:          Same("client_id", "client_secret", "redirect_uri"),
		Hooks: Hooks{
			ParseToken:   ParseTokenResponseNoExpiry,
			FetchProfile: fetchGitHubProfile,
		},
	}
}

// fetchGitHubProfile fetches the user and replaces "email" with the primary
// verified address. Returns ErrEmailNotVerified if there is none.
func fetchGitHubProfile(ctx context.Context, t Transport, cfg ProviderConfig, req ProfileRequest) (profile.RawProfile, error) {
	raw, err := FetchProfile(ctx, t, cfg, req)
	if err != nil {
		return nil, err
	}

	resp, err := getProfile(ctx, t, cfg, githubEmailsURL, req.AccessToken)
	if err != nil {
		return nil, err
	}

	var emails []githubEmail
	if err := json.Unmarshal(resp.Body, &emails); err != nil {
		return nil, errors.Join(ErrProfileFetch, fmt.Errorf("decode emails: %w", err))
	}

	email, ok := primaryVerifiedEmail(emails)
	if !ok {
		return nil, ErrEmailNotVerified
	}
	fieldmap.Set(raw, "email", email)

	return raw, nil
}

func primaryVerifiedEmail(emails []githubEmail) (string, bool) {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return "", false
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}
