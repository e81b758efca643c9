package oauth

import (
	"golang.org/x/oauth2/linkedin"

	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

// LinkedInProviderName is the identifier for the LinkedIn provider.
const LinkedInProviderName = "linkedin"

// LinkedInDefaultProfileFields returns the field selector requested from the
// LinkedIn people API by default.
func LinkedInDefaultProfileFields() []string {
	return []string{
		"id", "first-name", "last-name", "maiden-name", "formatted-name",
		"headline", "industry", "summary", "email-address", "picture-url",
		"location:(name)", "public-profile-url", "site-standard-profile-request",
	}
}

// LinkedIn declares the LinkedIn OAuth2 provider. The profile is requested
// as XML from the people API with the configured field selector embedded
// in the URL.
func LinkedIn() ProviderConfig {
	return ProviderConfig{
		Name:     LinkedInProviderName,
		Required: []string{"api_key", "secret_key"},
		Optional: []string{"scope", "state", "response_type", "profile_fields", "redirect_uri"},
		Defaults: Settings{
			"response_type":  String("code"),
			"profile_fields": List(LinkedInDefaultProfileFields()...),
		},
		ResponseMap: fieldmap.Table{
			{To: "name", From: "formatted-name"},
			{To: "uid", From: "id"},
			{To: "info.name", From: "formatted-name"},
			{To: "info.first_name", From: "first-name"},
			{To: "info.last_name", From: "last-name"},
			{To: "info.email", From: "email-address"},
			{To: "info.headline", From: "headline"},
			{To: "info.description", From: "summary"},
			{To: "info.location", From: "location.name"},
			{To: "info.image", From: "picture-url"},
			{To: "info.urls.linkedin", From: "public-profile-url"},
			{To: "info.urls.linkedin_authenticated", From: "site-standard-profile-request.url"},
		},
		Endpoint:          linkedin.Endpoint,
		ProfileURL:        "https://api.linkedin.com/v1/people/~:{profile_fields}",
		ProfileFormat:     profile.FormatXML,
		ProfileTokenParam: "oauth2_access_token",
		AuthParams: Aliases{
			{Setting: "api_key", Param: "client_id"},
			{Setting: "state", Param: "state"},
			{Setting: "response_type", Param: "response_type"},
			{Setting: "scope", Param: "scope"},
			{Setting: "redirect_uri", Param: "redirect_uri"},
		},
		TokenParams: Aliases{
			{Setting: "api_key", Param: "client_id"},
			{Setting: "secret_key", Param: "client_secret"},
			{Setting: "redirect_uri", Param: "redirect_uri"},
		},
	}
}
