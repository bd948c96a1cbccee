// Package graph is a small Microsoft Graph REST client covering the OneNote,
// drive and directory calls the OKR service needs.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TokenProvider supplies a bearer token scoped to the given resource audience.
// The client never manages token lifetime itself.
type TokenProvider interface {
	Token(ctx context.Context, audience string) (string, error)
}

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken string

func (t StaticToken) Token(ctx context.Context, audience string) (string, error) {
	if t == "" {
		return "", fmt.Errorf("no token for %s", audience)
	}
	return string(t), nil
}

type Client struct {
	baseURL  string
	resource string
	http     *http.Client
	tokens   TokenProvider
}

func NewClient(baseURL, resource string, timeout time.Duration, tokens TokenProvider) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		resource: resource,
		http:     &http.Client{Timeout: timeout},
		tokens:   tokens,
	}
}

// WithTokens returns a copy of c that authenticates through p. The copy
// shares the underlying http.Client.
func (c *Client) WithTokens(p TokenProvider) *Client {
	clone := *c
	clone.tokens = p
	return &clone
}

func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, nil, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp, out)
}

// PostHTML creates a resource from an XHTML body, as OneNote page creation
// requires.
func (c *Client) PostHTML(ctx context.Context, path, html string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodPost, path, nil, "application/xhtml+xml", strings.NewReader(html))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp, out)
}

func (c *Client) PatchJSON(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode patch body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPatch, path, nil, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) Delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)
	return nil
}

// GetDocument fetches an HTML resource and parses it.
func (c *Client) GetDocument(ctx context.Context, path string, query url.Values) (*goquery.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, path, query, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*http.Response, error) {
	token, err := c.tokens.Token(ctx, c.resource)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire token: %w", err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + EncodeQuery(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, parseError(resp, method, path)
	}

	return resp, nil
}

// EncodeQuery encodes OData query options. Spaces become %20 because Graph
// does not read '+' as a space inside $filter expressions.
func EncodeQuery(query url.Values) string {
	return strings.ReplaceAll(query.Encode(), "+", "%20")
}

// Quote renders s as an OData string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func decodeJSON(resp *http.Response, out interface{}) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
