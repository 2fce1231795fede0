// Package api talks to the todo backend over HTTP.
//
// Every call returns either a decoded result or an error that OutcomeOf
// classifies as OutcomeNotOK (*StatusError) or OutcomeFailed (*RequestError).
// Nothing is retried.
package api

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

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todo-remote/internal/model"
)

// maxErrorBody caps how much of a non-2xx body is kept in StatusError.
const maxErrorBody = 512

// Client issues requests against one backend origin.
type Client struct {
	base     *url.URL
	listPath string
	http     *http.Client
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a request timeout. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithListPath sets the path used by List.
func WithListPath(p string) Option {
	return func(c *Client) { c.listPath = p }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url: need scheme and host, got %q", baseURL)
	}
	c := &Client{
		base:     u,
		listPath: "/allTodos",
		http:     &http.Client{},
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.base.String() }

type titlePatch struct {
	Title string `json:"title"`
}

type completionPatch struct {
	IsCompleted bool `json:"isCompleted"`
}

// EditTitle sends PUT /editTodo/{id} with {"title": title} and returns the
// record the backend stored. title is sent verbatim.
func (c *Client) EditTitle(ctx context.Context, id int, title string) (model.Record, error) {
	return c.edit(ctx, id, titlePatch{Title: title})
}

// SetCompleted sends PUT /editTodo/{id} with {"isCompleted": completed}.
func (c *Client) SetCompleted(ctx context.Context, id int, completed bool) (model.Record, error) {
	return c.edit(ctx, id, completionPatch{IsCompleted: completed})
}

func (c *Client) edit(ctx context.Context, id int, patch interface{}) (model.Record, error) {
	path := "/editTodo/" + strconv.Itoa(id)
	body, err := c.do(ctx, http.MethodPut, path, patch)
	if err != nil {
		return model.Record{}, err
	}
	rec, err := decodeRecord(body)
	if err != nil {
		return model.Record{}, &RequestError{Method: http.MethodPut, Path: path, Err: err}
	}
	return rec, nil
}

// Delete sends DELETE /deleteTodo/{id}. The backend may answer with the
// deleted record or an empty body; the returned record is nil in the
// latter case and whenever the body does not describe a record.
func (c *Client) Delete(ctx context.Context, id int) (*model.Record, error) {
	path := "/deleteTodo/" + strconv.Itoa(id)
	body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	rec, err := decodeRecord(body)
	if err != nil {
		c.logger.Debug("delete response ignored", "id", id, "err", err)
		return nil, nil
	}
	return &rec, nil
}

// List fetches the full ordered list of records.
func (c *Client) List(ctx context.Context) ([]model.Record, error) {
	body, err := c.do(ctx, http.MethodGet, c.listPath, nil)
	if err != nil {
		return nil, err
	}
	out, err := decodeList(body)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, Path: c.listPath, Err: err}
	}
	return out, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &RequestError{Method: method, Path: path, Err: fmt.Errorf("marshal: %w", err)}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rdr)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "err", err)
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
