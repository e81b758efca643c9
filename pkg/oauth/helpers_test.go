package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/oauthflow/pkg/oauth"
)

const (
	testAuthURL    = "https://provider.test/oauth/authorize"
	testTokenURL   = "https://provider.test/oauth/token"
	testProfileURL = "https://api.provider.test/people/~:{profile_fields}"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// fakeTransport records calls and answers them with canned responses.
type fakeTransport struct {
	post func(endpoint string, form url.Values) (*oauth.Response, error)
	get  func(endpoint string, query url.Values, header http.Header) (*oauth.Response, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeTransport) Get(_ context.Context, endpoint string, query url.Values, header http.Header) (*oauth.Response, error) {
	f.record("GET " + endpoint)
	if f.get == nil {
		return &oauth.Response{StatusCode: http.StatusNotFound}, nil
	}
	return f.get(endpoint, query, header)
}

func (f *fakeTransport) Post(_ context.Context, endpoint string, form url.Values, _ http.Header) (*oauth.Response, error) {
	f.record("POST " + endpoint)
	if f.post == nil {
		return &oauth.Response{StatusCode: http.StatusNotFound}, nil
	}
	return f.post(endpoint, form)
}

func (f *fakeTransport) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func jsonResponse(status int, body string) *oauth.Response {
	return &oauth.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
}

func xmlResponse(status int, body string) *oauth.Response {
	return &oauth.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"text/xml;charset=UTF-8"}},
		Body:       []byte(body),
	}
}

// testLinkedIn is the LinkedIn declaration pointed at test hosts.
func testLinkedIn() oauth.ProviderConfig {
	cfg := oauth.LinkedIn()
	cfg.Endpoint = oauth2.Endpoint{AuthURL: testAuthURL, TokenURL: testTokenURL}
	cfg.ProfileURL = testProfileURL
	return cfg
}

func testSettings() oauth.Settings {
	return oauth.Settings{
		"api_key":      oauth.String("key-123"),
		"secret_key":   oauth.String("secret-456"),
		"redirect_uri": oauth.String("https://app.example.com/auth/linkedin/callback"),
	}
}

const linkedInPersonXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<person>
  <id>Ab12Cd</id>
  <first-name>Jane</first-name>
  <last-name>Doe</last-name>
  <formatted-name>Jane Doe</formatted-name>
  <headline>Engineer</headline>
  <summary>Builds things</summary>
  <email-address>jane@x.com</email-address>
  <picture-url>https://media.example.com/jane.png</picture-url>
  <location>
    <name>Berlin Area, Germany</name>
  </location>
  <public-profile-url>https://www.linkedin.com/in/janedoe</public-profile-url>
  <site-standard-profile-request>
    <url>https://www.linkedin.com/profile/view?id=1</url>
  </site-standard-profile-request>
</person>`

// rewriteTransport intercepts requests to hosts containing match and routes
// them to a local handler instead.
type rewriteTransport struct {
	base    http.RoundTripper
	handler http.Handler
	match   string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.Contains(req.URL.Host, t.match) {
		recorder := httptest.NewRecorder()
		t.handler.ServeHTTP(recorder, req)
		return recorder.Result(), nil
	}
	return t.base.RoundTrip(req)
}
