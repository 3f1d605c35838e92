package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ResponseBody holds the raw bytes of a fetched resource.
type ResponseBody []byte

// String decodes the body as UTF-8, replacing invalid sequences with
// U+FFFD. It never fails and preserves valid regions as-is.
func (b ResponseBody) String() string {
	return strings.ToValidUTF8(string(b), "�")
}

// Response is the payload of a fetch that came back with a success
// status. An empty body is a valid response.
type Response struct {
	Status uint16
	Body   ResponseBody
}

// Result is the outcome of a completed fetch: either a Response or a
// classified FetchError, never both.
type Result struct {
	Response *Response
	Err      *FetchError
}

// Client performs HTTP fetches.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a fetch client around the given HTTP client.
// A nil httpClient gets a default transport with proxy support from the
// environment and no request timeout; deadlines then come from the
// caller's context.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		// This respects HTTP_PROXY, HTTPS_PROXY, and NO_PROXY environment variables
		transport := http.DefaultTransport.(*http.Transport).Clone()
		httpClient = &http.Client{Transport: transport}
	}
	return &Client{httpClient: httpClient}
}

// Fetch performs a single GET against rawURL. A non-empty userAgent is
// sent as the User-Agent header; when empty, no User-Agent header is
// sent at all.
//
// Failures are reported on two levels. Transport failures and non-2xx
// statuses come back as a classified *FetchError inside the Result,
// with a nil error. A non-nil error is reserved for failures outside
// the fetch outcome itself: context cancellation, and a response body
// that breaks after a success status was already received.
func (c *Client) Fetch(ctx context.Context, rawURL, userAgent string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Result{Err: Classify(rawURL, err)}, nil
	}

	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	} else {
		// An empty value keeps net/http's default agent off the wire entirely
		req.Header.Set("User-Agent", "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancellation is the caller's decision, not a fetch outcome
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return &Result{Err: Classify(rawURL, err)}, nil
	}
	defer func() {
		_ = resp.Body.Close() // Ignore close errors after reading
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &Result{Err: &FetchError{
			URL:        rawURL,
			Kind:       KindStatus,
			StatusCode: uint16(resp.StatusCode),
			Detail:     fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", rawURL, err)
	}

	return &Result{Response: &Response{
		Status: uint16(resp.StatusCode),
		Body:   ResponseBody(body),
	}}, nil
}
