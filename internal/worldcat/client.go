// Package worldcat implements the client for the WorldCat Discovery API:
// authenticated single-query lookups against the brief-bib and full-bib
// search endpoints, with outcome classification for the run loop.
package worldcat

import (
	"context"
	"net/url"

	"github.com/MarkBruyneel/WorldCat/internal/transport"
	"github.com/MarkBruyneel/WorldCat/pkg/errors"
)

// OAuth2 scopes per endpoint. Brief searches need the narrow scope; full
// bibliographic records need wcapi:view_bib.
const (
	ScopeBriefBib = "wcapi:view_brief_bib"
	ScopeFullBib  = "wcapi:view_bib"
)

// FetchStatus classifies the outcome of one lookup.
type FetchStatus int

// Fetch outcomes.
const (
	StatusOK FetchStatus = iota
	StatusNotFound
	StatusTransient
	StatusAuth
	StatusMalformed
)

// String implements fmt.Stringer.
func (s FetchStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusTransient:
		return "transient_error"
	case StatusAuth:
		return "auth_error"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ISBNQuery builds the query-grammar clause for an ISBN lookup.
func ISBNQuery(isbn string) string {
	return "bn:" + isbn
}

// Client performs lookups against one Discovery API base URL.
type Client struct {
	transport  *transport.Client
	baseURL    string
	openAccess bool
}

// Option configures a Client.
type Option func(*Client)

// WithOpenAccess adds the openAccess flag to every query, matching the
// text-search and full-record request shapes.
func WithOpenAccess() Option {
	return func(c *Client) { c.openAccess = true }
}

// New creates a Discovery API client.
func New(auth transport.Authenticator, baseURL string, opts ...Option) *Client {
	c := &Client{
		transport: transport.New(auth),
		baseURL:   baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BriefBibs looks up brief bibliographic records for one query.
func (c *Client) BriefBibs(ctx context.Context, query string) ([]byte, FetchStatus, error) {
	return c.fetch(ctx, "/brief-bibs", query)
}

// Bibs looks up full bibliographic records for one query.
func (c *Client) Bibs(ctx context.Context, query string) ([]byte, FetchStatus, error) {
	return c.fetch(ctx, "/bibs", query)
}

// fetch issues one GET and classifies the outcome. Related-edition
// grouping is disabled and holdings indicators requested on every call.
func (c *Client) fetch(ctx context.Context, endpoint, query string) ([]byte, FetchStatus, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("groupRelatedEditions", "false")
	params.Set("showHoldingsIndicators", "true")
	u := c.baseURL + endpoint + "?" + params.Encode()
	if c.openAccess {
		u += "&openAccess"
	}

	resp, err := c.transport.Get(ctx, u)
	if err != nil {
		return nil, classifyErr(err), err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close() //nolint:errcheck // error response
		apiErr := errors.NewAPIError(resp.StatusCode, endpoint, resp.Status)
		return nil, classifyErr(apiErr), apiErr
	}

	body, err := transport.ReadBody(resp)
	if err != nil {
		return nil, StatusTransient, err
	}
	return body, StatusOK, nil
}

// classifyErr maps an error onto a FetchStatus.
func classifyErr(err error) FetchStatus {
	switch {
	case errors.IsAuth(err):
		return StatusAuth
	case errors.IsNotFound(err):
		return StatusNotFound
	case errors.IsTransient(err):
		return StatusTransient
	default:
		return StatusTransient
	}
}
