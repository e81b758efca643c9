package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMaxBodySize caps how much of a provider response is read.
const DefaultMaxBodySize = 1 << 20

// Response is a fully read provider response.
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs the two HTTP calls of a flow. Implementations own
// timeouts and connection reuse; the engine never retries.
type Transport interface {
	// Get issues a GET with query merged into the endpoint's own query.
	Get(ctx context.Context, endpoint string, query url.Values, header http.Header) (*Response, error)

	// Post issues a form-encoded POST.
	Post(ctx context.Context, endpoint string, form url.Values, header http.Header) (*Response, error)
}

// HTTPTransport implements Transport on top of an *http.Client.
type HTTPTransport struct {
	client      *http.Client
	maxBodySize int64
}

// NewHTTPTransport returns a transport using client, or http.DefaultClient when nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client, maxBodySize: DefaultMaxBodySize}
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, endpoint string, query url.Values, header http.Header) (*Response, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	copyHeader(req.Header, header)

	return t.do(req)
}

// Post implements Transport.
func (t *HTTPTransport) Post(ctx context.Context, endpoint string, form url.Values, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	copyHeader(req.Header, header)

	return t.do(req)
}

func (t *HTTPTransport) do(req *http.Request) (*Response, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNilResponse
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("read body: status=%d", resp.StatusCode), err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		dst.Del(k)
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
