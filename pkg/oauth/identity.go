package oauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthflow/pkg/fieldmap"
	"github.com/dmitrymomot/oauthflow/pkg/profile"
)

// Identity is the provider-independent result of a completed flow.
// Fields the provider did not supply are left empty and omitted from JSON.
type Identity struct {
	Raw         profile.RawProfile `json:"raw"                   mapstructure:"-"`
	Credentials Credentials        `json:"credentials"           mapstructure:"-"`
	Info        Info               `json:"info,omitzero"         mapstructure:"info"`
	Provider    string             `json:"provider"              mapstructure:"-"`
	UID         string             `json:"uid"                   mapstructure:"uid"`
	Name        string             `json:"name,omitempty"        mapstructure:"name"`
}

// Info holds the descriptive profile fields.
type Info struct {
	URLs        map[string]string `json:"urls,omitempty"        mapstructure:"urls"`
	Name        string            `json:"name,omitempty"        mapstructure:"name"`
	FirstName   string            `json:"first_name,omitempty"  mapstructure:"first_name"`
	LastName    string            `json:"last_name,omitempty"   mapstructure:"last_name"`
	Email       string            `json:"email,omitempty"       mapstructure:"email"`
	Headline    string            `json:"headline,omitempty"    mapstructure:"headline"`
	Description string            `json:"description,omitempty" mapstructure:"description"`
	Location    string            `json:"location,omitempty"    mapstructure:"location"`
	Image       string            `json:"image,omitempty"       mapstructure:"image"`
}

// Credentials is the access token obtained by the flow.
// ExpiresAt is computed locally when the token response arrives; it is zero
// when the provider issues non-expiring tokens.
type Credentials struct {
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Token     string    `json:"token"`
}

// OAuth2Token converts the credentials for use with golang.org/x/oauth2 clients.
func (c Credentials) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.Token,
		TokenType:   "Bearer",
		Expiry:      c.ExpiresAt,
	}
}

// TokenResponse is the decoded body of a token endpoint response.
type TokenResponse struct {
	AccessToken string `mapstructure:"access_token"`
	TokenType   string `mapstructure:"token_type"`
	Scope       string `mapstructure:"scope"`
	ExpiresIn   int64  `mapstructure:"expires_in"` // seconds

	hasExpiry bool
}

// ParseTokenResponse decodes a JSON token response that must carry both
// access_token and expires_in. Numeric strings are accepted for expires_in.
func ParseTokenResponse(body []byte) (*TokenResponse, error) {
	return parseTokenResponse(body, true)
}

// ParseTokenResponseNoExpiry is like ParseTokenResponse but tolerates a
// missing expires_in, for providers issuing non-expiring tokens.
func ParseTokenResponseNoExpiry(body []byte) (*TokenResponse, error) {
	return parseTokenResponse(body, false)
}

func parseTokenResponse(body []byte, requireExpiry bool) (*TokenResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	_, hasExpiry := raw["expires_in"]
	if requireExpiry && !hasExpiry {
		return nil, errors.New("token response has no expires_in")
	}

	var tr TokenResponse
	if err := weakDecode(raw, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}
	if tr.ExpiresIn < 0 {
		return nil, fmt.Errorf("token response has negative expires_in %d", tr.ExpiresIn)
	}
	if tr.ExpiresIn > maxExpiresIn {
		return nil, fmt.Errorf("token response has out of range expires_in %d", tr.ExpiresIn)
	}
	tr.hasExpiry = hasExpiry

	return &tr, nil
}

// maxExpiresIn is the largest lifetime in seconds that fits a time.Duration.
const maxExpiresIn = math.MaxInt64 / int64(time.Second)

// newCredentials stamps the expiry relative to the moment the token arrived.
// An explicit expires_in of 0 yields an already expired token; ExpiresAt stays
// zero only when the response carried no lifetime at all.
func newCredentials(tr *TokenResponse, received time.Time) Credentials {
	c := Credentials{Token: tr.AccessToken}
	if tr.ExpiresIn > 0 || tr.hasExpiry {
		c.ExpiresAt = received.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return c
}

// mapIdentity projects raw through table and decodes the result into an Identity.
// A decode error is returned alongside a partially filled identity.
func mapIdentity(raw profile.RawProfile, table fieldmap.Table) (*Identity, error) {
	id := &Identity{Raw: raw}
	tree := fieldmap.Project(raw, table)
	if err := weakDecode(tree, id); err != nil {
		return id, err
	}
	return id, nil
}

func weakDecode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncKind(dropComposite),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// dropComposite turns maps and lists headed for a string field into "",
// so a mapping that resolves to a subtree yields an absent field.
func dropComposite(from, to reflect.Kind, data any) (any, error) {
	if to == reflect.String && (from == reflect.Map || from == reflect.Slice) {
		return "", nil
	}
	return data, nil
}

// scalarString returns the string form of a scalar profile value.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	case bool, float64, int, int64:
		return fmt.Sprint(t), true
	}
	return "", false
}
