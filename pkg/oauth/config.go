package oauth

// GoogleConfig holds Google OAuth configuration.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL" envDefault:""`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
}

// Settings converts the configuration into flow settings for Google().
func (c GoogleConfig) Settings() Settings {
	s := Settings{
		"client_id":     String(c.ClientID),
		"client_secret": String(c.ClientSecret),
		"redirect_uri":  String(c.RedirectURL),
	}
	if len(c.Scopes) > 0 {
		s["scope"] = List(c.Scopes...)
	}
	return s
}

// GitHubConfig holds GitHub OAuth configuration.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL" envDefault:""`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:","`
}

// Settings converts the configuration into flow settings for GitHub().
func (c GitHubConfig) Settings() Settings {
	s := Settings{
		"client_id":     String(c.ClientID),
		"client_secret": String(c.ClientSecret),
		"redirect_uri":  String(c.RedirectURL),
	}
	if len(c.Scopes) > 0 {
		s["scope"] = List(c.Scopes...)
	}
	return s
}

// LinkedInConfig holds LinkedIn OAuth configuration.
type LinkedInConfig struct {
	APIKey        string   `env:"LINKEDIN_OAUTH_API_KEY"`
	SecretKey     string   `env:"LINKEDIN_OAUTH_SECRET_KEY"`
	RedirectURL   string   `env:"LINKEDIN_OAUTH_REDIRECT_URL" envDefault:""`
	Scopes        []string `env:"LINKEDIN_OAUTH_SCOPES" envSeparator:","`
	ProfileFields []string `env:"LINKEDIN_OAUTH_PROFILE_FIELDS" envSeparator:","`
}

// Settings converts the configuration into flow settings for LinkedIn().
func (c LinkedInConfig) Settings() Settings {
	s := Settings{
		"api_key":      String(c.APIKey),
		"secret_key":   String(c.SecretKey),
		"redirect_uri": String(c.RedirectURL),
	}
	if len(c.Scopes) > 0 {
		s["scope"] = List(c.Scopes...)
	}
	if len(c.ProfileFields) > 0 {
		s["profile_fields"] = List(c.ProfileFields...)
	}
	return s
}
