package oauth

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

// providerDoc is the YAML shape of one catalog entry.
type providerDoc struct {
	Defaults             Settings       `yaml:"defaults"`
	Name                 string         `yaml:"name"`
	AuthorizeURL         string         `yaml:"authorize_url"`
	TokenURL             string         `yaml:"token_url"`
	ProfileURL           string         `yaml:"profile_url"`
	ProfileFormat        string         `yaml:"profile_format"`
	ProfileTokenParam    string         `yaml:"profile_token_param"`
	Required             []string       `yaml:"required"`
	Optional             []string       `yaml:"optional"`
	ListSettings         []string       `yaml:"list_settings"`
	ResponseMap          fieldmap.Table `yaml:"response_map"`
	AuthParams           Aliases        `yaml:"auth_params"`
	TokenParams          Aliases        `yaml:"token_params"`
	ProfileTokenInHeader bool           `yaml:"profile_token_in_header"`
}

// LoadProviders reads a YAML provider catalog and validates every entry.
//
//	providers:
//	  - name: linkedin
//	    required: [api_key, secret_key]
//	    optional: [scope, state, response_type, profile_fields]
//	    list_settings: [scope]
//	    defaults:
//	      response_type: code
//	      profile_fields: [id, formatted-name, email-address]
//	    authorize_url: https://www.linkedin.com/uas/oauth2/authorization
//	    token_url: https://www.linkedin.com/uas/oauth2/accessToken
//	    profile_url: https://api.linkedin.com/v1/people/~:{profile_fields}
//	    profile_format: xml
//	    profile_token_param: oauth2_access_token
//	    auth_params: {api_key: client_id, state: state, response_type: response_type, scope: scope}
//	    token_params: {api_key: client_id, secret_key: client_secret}
//	    response_map:
//	      uid: id
//	      name: formatted-name
//	      info.email: email-address
//
// Catalog providers have no hooks; they use the default flow steps.
func LoadProviders(r io.Reader) ([]ProviderConfig, error) {
	var doc struct {
		Providers []providerDoc `yaml:"providers"`
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Join(ErrInvalidProvider, fmt.Errorf("decode catalog: %w", err))
	}

	seen := make(map[string]bool, len(doc.Providers))
	out := make([]ProviderConfig, 0, len(doc.Providers))
	for i, d := range doc.Providers {
		format, err := profile.ParseFormat(d.ProfileFormat)
		if err != nil {
			return nil, errors.Join(ErrInvalidProvider, fmt.Errorf("provider #%d (%s): %w", i, d.Name, err))
		}

		cfg := ProviderConfig{
			Name:                 d.Name,
			Required:             d.Required,
			Optional:             d.Optional,
			Defaults:             d.Defaults,
			ListSettings:         d.ListSettings,
			ResponseMap:          d.ResponseMap,
			Endpoint:             oauth2.Endpoint{AuthURL: d.AuthorizeURL, TokenURL: d.TokenURL},
			ProfileURL:           d.ProfileURL,
			ProfileFormat:        format,
			ProfileTokenParam:    d.ProfileTokenParam,
			ProfileTokenInHeader: d.ProfileTokenInHeader,
			AuthParams:           d.AuthParams,
			TokenParams:          d.TokenParams,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("provider #%d (%s): %w", i, d.Name, err)
		}
		if seen[cfg.Name] {
			return nil, errors.Join(ErrInvalidProvider, fmt.Errorf("duplicate provider %q", cfg.Name))
		}
		seen[cfg.Name] = true

		out = append(out, cfg)
	}

	return out, nil
}
