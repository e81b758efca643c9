package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

// DefaultProfileTokenParam is the query parameter carrying the access token
// on the profile request when a provider does not name its own.
const DefaultProfileTokenParam = "access_token"

// ParamAlias maps a setting key to the wire parameter name a provider expects.
type ParamAlias struct {
	Setting string // e.g. "api_key"
	Param   string // e.g. "client_id"
}

// Aliases is an ordered parameter-mapping table.
type Aliases []ParamAlias

// Same builds an alias table where each setting keeps its own name on the wire.
func Same(keys ...string) Aliases {
	out := make(Aliases, 0, len(keys))
	for _, k := range keys {
		out = append(out, ParamAlias{Setting: k, Param: k})
	}
	return out
}

// UnmarshalYAML accepts a mapping (setting: param) or a sequence of setting names.
func (a *Aliases) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Aliases, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			out = append(out, ParamAlias{Setting: node.Content[i].Value, Param: node.Content[i+1].Value})
		}
		*a = out
		return nil
	case yaml.SequenceNode:
		keys := make([]string, 0, len(node.Content))
		for _, n := range node.Content {
			keys = append(keys, n.Value)
		}
		*a = Same(keys...)
		return nil
	}
	return fmt.Errorf("line %d: expected mapping or list of parameter names", node.Line)
}

// apply writes every non-empty aliased setting into dst. List values are joined with sep.
func (a Aliases) apply(dst url.Values, s Settings, sep string) {
	for _, al := range a {
		v, ok := s[al.Setting]
		if !ok || v.IsZero() {
			continue
		}
		dst.Set(al.Param, v.Join(sep))
	}
}

func (a Aliases) has(setting string) bool {
	return slices.ContainsFunc(a, func(al ParamAlias) bool { return al.Setting == setting })
}

// ProfileRequest describes the single profile fetch of a flow.
type ProfileRequest struct {
	URL         string // resolved profile URL
	AccessToken string
	Settings    Settings
}

// Hooks replace individual steps of the flow for providers that deviate
// from the defaults. Nil hooks fall back to CallbackParams, ParseTokenResponse
// and FetchProfile; a nil PostProcess is a no-op.
type Hooks struct {
	// CallbackParams builds the token request form.
	CallbackParams func(cfg ProviderConfig, settings Settings, code string) url.Values

	// ParseToken decodes a successful token endpoint body.
	ParseToken func(body []byte) (*TokenResponse, error)

	// FetchProfile retrieves and normalizes the user profile.
	FetchProfile func(ctx context.Context, t Transport, cfg ProviderConfig, req ProfileRequest) (profile.RawProfile, error)

	// PostProcess inspects or amends the mapped identity.
	PostProcess func(ctx context.Context, id *Identity) error
}

// ProviderConfig is the static declaration of an identity provider.
// It is plain data and is validated once by Validate (New calls it).
type ProviderConfig struct {
	Name     string
	Required []string // settings that must be present before any network call
	Optional []string
	Defaults Settings // keys must be listed in Optional
	// ListSettings names settings whose textual form is a comma-separated list.
	// Keys with a list default are list settings without being named here.
	ListSettings []string
	ResponseMap  fieldmap.Table
	Endpoint     oauth2.Endpoint // AuthURL and TokenURL

	// ProfileURL may contain {setting} placeholders. Each placeholder is
	// replaced with FieldSelector of the resolved setting, so a list value
	// renders as "(a,b,c)".
	ProfileURL           string
	ProfileFormat        profile.Format
	ProfileTokenParam    string
	ProfileTokenInHeader bool // send "Authorization: Bearer" instead of a query parameter

	AuthParams  Aliases // authorize redirect parameters
	TokenParams Aliases // token request parameters besides code and grant_type

	Hooks Hooks
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_.\-]+)\}`)

// Validate checks the declaration for internal consistency.
func (c ProviderConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}

	for _, k := range c.Required {
		if slices.Contains(c.Optional, k) {
			errs = append(errs, fmt.Errorf("setting %q is both required and optional", k))
		}
	}

	for k := range c.Defaults {
		if !slices.Contains(c.Optional, k) {
			errs = append(errs, fmt.Errorf("default %q is not an optional setting", k))
		}
	}

	for _, k := range c.ListSettings {
		if !slices.Contains(c.Required, k) && !slices.Contains(c.Optional, k) {
			errs = append(errs, fmt.Errorf("list setting %q is not a declared setting", k))
		}
	}

	if err := c.ResponseMap.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := validateAbsURL("authorize URL", c.Endpoint.AuthURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateAbsURL("token URL", c.Endpoint.TokenURL); err != nil {
		errs = append(errs, err)
	}

	if c.ProfileURL == "" && c.Hooks.FetchProfile == nil {
		errs = append(errs, errors.New("profile URL is required without a FetchProfile hook"))
	}
	for _, m := range placeholderRe.FindAllStringSubmatch(c.ProfileURL, -1) {
		if !slices.Contains(c.Required, m[1]) && !slices.Contains(c.Optional, m[1]) {
			errs = append(errs, fmt.Errorf("profile URL placeholder %q is not a declared setting", m[1]))
		}
	}

	if _, err := profile.ParseFormat(string(c.ProfileFormat)); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidProvider}, errs...)...)
	}
	return nil
}

// IsListSetting reports whether key takes a list value.
func (c ProviderConfig) IsListSetting(key string) bool {
	return slices.Contains(c.ListSettings, key) || c.Defaults[key].IsList()
}

func validateAbsURL(what, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", what)
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%s %q is not an absolute URL", what, raw)
	}
	return nil
}

// ResolveSettings merges defaults with supplied settings and checks that
// every required key holds a non-empty value. Empty supplied values do not
// override defaults. The result is a fresh map owned by the caller.
func (c ProviderConfig) ResolveSettings(supplied Settings) (Settings, error) {
	out := c.Defaults.Clone()
	for k, v := range supplied {
		if v.IsZero() {
			continue
		}
		out[k] = v
	}

	var missing []string
	for _, k := range c.Required {
		if v, ok := out[k]; !ok || v.IsZero() {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(ErrConfig, fmt.Errorf("provider %s: missing %s", c.Name, strings.Join(missing, ", ")))
	}

	return out, nil
}

// ResolveProfileURL interpolates the {setting} placeholders of ProfileURL.
func (c ProviderConfig) ResolveProfileURL(s Settings) (string, error) {
	var missing []string
	resolved := placeholderRe.ReplaceAllStringFunc(c.ProfileURL, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := s[key]
		if !ok || v.IsZero() {
			missing = append(missing, key)
			return m
		}
		return FieldSelector(v)
	})
	if len(missing) > 0 {
		return "", errors.Join(ErrConfig, fmt.Errorf("provider %s: profile URL needs %s", c.Name, strings.Join(missing, ", ")))
	}
	return resolved, nil
}

func (c ProviderConfig) profileTokenParam() string {
	if c.ProfileTokenParam != "" {
		return c.ProfileTokenParam
	}
	return DefaultProfileTokenParam
}
