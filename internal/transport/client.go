// Package transport provides the authenticated HTTP client used for
// catalog API calls.
package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/MarkBruyneel/WorldCat/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Client provides HTTP client functionality with authentication.
type Client struct {
	http *http.Client
	auth Authenticator
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator) *Client {
	return &Client{
		http: &http.Client{Timeout: DefaultHTTPTimeout},
		auth: auth,
	}
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewAPIError(0, url, err.Error())
	}

	if err := c.auth.Apply(req); err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.ErrCanceled
		}
		return nil, &errors.APIError{Endpoint: url, Message: err.Error(), Err: errors.ErrUnavailable}
	}
	return resp, nil
}

// ReadBody drains and closes a response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close() //nolint:errcheck // read error dominates
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAPIError(resp.StatusCode, resp.Request.URL.String(), err.Error())
	}
	return body, nil
}
