// Package remote talks to the transaction store over HTTP with JSON bodies.
//
// The client exposes exactly two operations, list and create. It never
// retries, batches or deduplicates: every create call is one POST.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
)

const (
	transactionsPath = "/api/transactions/"

	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes = 10 << 20
)

// Client handles communication with the transaction store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each call. Zero keeps the default of no timeout, in
// which case only the caller's context can end a hung request. The client
// is copied first, so an *http.Client passed to WithHTTPClient is not changed.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent(log.ComponentRemote)
		}
	}
}

// New creates a client for the store rooted at baseURL, e.g.
// "http://localhost:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(u.String(), "/"),
		logger:     log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the collection URL used for both operations.
func (c *Client) Endpoint() string {
	return c.baseURL + transactionsPath
}

// ListTransactions fetches the whole collection in the order the store
// returned it. Callers must sort.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(), nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: err}
	}
	if !success(resp.StatusCode) {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: statusError(body)}
	}

	var list []core.Transaction
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if list == nil {
		list = []core.Transaction{}
	}

	c.logger.DebugContext(ctx, "Fetched transactions",
		log.FieldURL, c.Endpoint(),
		log.FieldCount, len(list))

	return list, nil
}

// CreateTransaction posts one record. The created representation returned
// by the store is not read; callers re-fetch the list instead.
func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return &WriteError{Err: fmt.Errorf("marshal transaction: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return &WriteError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &WriteError{Err: err}
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		body, _ := readBody(resp.Body)
		return &WriteError{StatusCode: resp.StatusCode, Err: statusError(body)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseBytes))

	c.logger.DebugContext(ctx, "Created transaction",
		log.FieldType, string(t.Type),
		log.FieldTitle, t.Title,
		log.FieldAmount, t.Amount,
		log.FieldStatusCode, resp.StatusCode)

	return nil
}

func success(code int) bool {
	return code >= 200 && code < 300
}

func readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > MaxResponseBytes {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

func statusError(body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	if snippet == "" {
		return ErrUnexpectedStatus
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedStatus, snippet)
}
