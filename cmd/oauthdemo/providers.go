package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/oauthflow/pkg/authflow"
	"github.com/dmitrymomot/oauthflow/pkg/oauth"
)

type provider struct {
	config   oauth.ProviderConfig
	settings oauth.Settings
}

// builtinProviders returns the built-in providers whose credentials are set.
func builtinProviders(cfg config) []provider {
	var out []provider
	if cfg.Google.ClientID != "" {
		out = append(out, provider{oauth.Google(), cfg.Google.Settings()})
	}
	if cfg.GitHub.ClientID != "" {
		out = append(out, provider{oauth.GitHub(), cfg.GitHub.Settings()})
	}
	if cfg.LinkedIn.APIKey != "" {
		out = append(out, provider{oauth.LinkedIn(), cfg.LinkedIn.Settings()})
	}
	return out
}

// catalogProviders loads the YAML catalog at path. Settings for a provider
// named "acme" come from OAUTH_ACME_<SETTING> variables in environ.
func catalogProviders(path string, environ map[string]string) ([]provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open provider catalog: %w", err)
	}
	defer f.Close()

	configs, err := oauth.LoadProviders(f)
	if err != nil {
		return nil, fmt.Errorf("load provider catalog %s: %w", path, err)
	}

	out := make([]provider, 0, len(configs))
	for _, c := range configs {
		out = append(out, provider{c, settingsFromEnv(c, environ)})
	}
	return out, nil
}

func settingsFromEnv(c oauth.ProviderConfig, environ map[string]string) oauth.Settings {
	prefix := "OAUTH_" + envName(c.Name) + "_"
	s := oauth.Settings{}
	for _, key := range slices.Concat(c.Required, c.Optional) {
		v, ok := environ[prefix+envName(key)]
		if !ok || v == "" {
			continue
		}
		if c.IsListSetting(key) {
			s[key] = oauth.List(strings.Split(v, ",")...)
		} else {
			s[key] = oauth.String(v)
		}
	}
	return s
}

func envName(s string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(s))
}

// withRedirectURI fills redirect_uri from the public URL when the provider
// accepts one and none was configured.
func withRedirectURI(p provider, publicURL string) oauth.Settings {
	accepts := slices.Contains(p.config.Required, "redirect_uri") || slices.Contains(p.config.Optional, "redirect_uri")
	if !accepts || p.settings.Lookup("redirect_uri") != "" {
		return p.settings
	}
	return p.settings.With("redirect_uri",
		oauth.String(strings.TrimRight(publicURL, "/")+"/auth/"+p.config.Name+"/callback"))
}

// registerProviders builds a strategy per provider and registers it on h.
// Catalog entries replace built-ins with the same name.
func registerProviders(h *authflow.Handler, cfg config, log *slog.Logger, client *http.Client) error {
	providers := builtinProviders(cfg)
	if cfg.ProvidersFile != "" {
		fromCatalog, err := catalogProviders(cfg.ProvidersFile, env.ToMap(os.Environ()))
		if err != nil {
			return err
		}
		providers = append(providers, fromCatalog...)
	}

	for _, p := range providers {
		s, err := oauth.New(p.config,
			oauth.WithLogger(log),
			oauth.WithHTTPClient(client),
		)
		if err != nil {
			return fmt.Errorf("provider %s: %w", p.config.Name, err)
		}
		h.Register(s, withRedirectURI(p, cfg.PublicURL))
		log.Info("oauth provider registered", slog.String("provider", p.config.Name))
	}
	return nil
}
