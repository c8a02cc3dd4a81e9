package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/trivial-timecard/internal/model"
)

// Client talks to the timecard REST backend.
type Client struct {
	baseURL    string
	employeeID int64
	httpClient *http.Client
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	EmployeeID int64
	// Token, when set, is sent as a bearer token on every request.
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the transport (used by tests). Token is ignored
	// when it is set.
	HTTPClient *http.Client
}

// NewClient creates a backend client.
func NewClient(ctx context.Context, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
			hc = oauth2.NewClient(ctx, ts)
		} else {
			hc = &http.Client{}
		}
		hc.Timeout = opts.Timeout
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		employeeID: opts.EmployeeID,
		httpClient: hc,
	}
}

// EmployeeID returns the employee the client reads and writes for.
func (c *Client) EmployeeID() int64 {
	return c.employeeID
}

// maxErrorBody is the number of body bytes HTTPError.Error shows.
const maxErrorBody = 200

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "…"
	}
	return fmt.Sprintf("%s %s: backend error %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// FetchRange returns the employee's entries with work dates in [from, to].
func (c *Client) FetchRange(ctx context.Context, from, to time.Time) ([]model.TimeEntry, error) {
	endpoint := fmt.Sprintf("%s/timecards/employee/%d/range/%s/%s",
		c.baseURL, c.employeeID, from.Format(model.DateLayout), to.Format(model.DateLayout))
	return c.fetchList(ctx, endpoint)
}

// FetchAll returns every entry recorded for the employee.
func (c *Client) FetchAll(ctx context.Context) ([]model.TimeEntry, error) {
	endpoint := fmt.Sprintf("%s/timecards/employee/%d", c.baseURL, c.employeeID)
	return c.fetchList(ctx, endpoint)
}

func (c *Client) fetchList(ctx context.Context, endpoint string) ([]model.TimeEntry, error) {
	var page listResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	entries := make([]model.TimeEntry, 0, len(page.Data))
	for _, w := range page.Data {
		e, err := w.ToEntry()
		if err != nil {
			return nil, fmt.Errorf("decoding entry %d: %w", w.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Create stores a new entry and returns it with the backend-assigned id.
func (c *Client) Create(ctx context.Context, entry model.TimeEntry) (model.TimeEntry, error) {
	return c.save(ctx, http.MethodPost, c.baseURL+"/timecards", entry)
}

// Update replaces the stored entry entry.ID with the given field values.
func (c *Client) Update(ctx context.Context, entry model.TimeEntry) (model.TimeEntry, error) {
	if !entry.Persisted() {
		return model.TimeEntry{}, fmt.Errorf("update of %s: entry has no id", entry.Date)
	}
	return c.save(ctx, http.MethodPut, fmt.Sprintf("%s/timecards/%d", c.baseURL, entry.ID), entry)
}

func (c *Client) save(ctx context.Context, method, endpoint string, entry model.TimeEntry) (model.TimeEntry, error) {
	payload := FromEntry(c.employeeID, entry)
	var resp itemResponse
	if err := c.do(ctx, method, endpoint, payload, &resp); err != nil {
		return model.TimeEntry{}, err
	}
	saved, err := resp.Data.ToEntry()
	if err != nil {
		// Some backends echo only the id; fall back to what was sent.
		if resp.Data.ID == 0 {
			return model.TimeEntry{}, fmt.Errorf("decoding %s response: %w", method, err)
		}
		saved = entry.Clone()
		saved.ID = resp.Data.ID
	}
	return saved, nil
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: request failed: %w", method, endpoint, err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	return nil
}
