package clockify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/hourdesk/internal/config"
	"go.uber.org/zap"
)

const defaultPageSize = 200

// Client talks to the Clockify REST API. It is constructed once from
// configuration and injected; it holds no global state.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time
}

func New(cfg config.Config, log *zap.Logger) *Client {
	pageSize := cfg.ClockifyPageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := cfg.ClockifyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.ClockifyBaseURL, "/"),
		apiKey:     cfg.ClockifyAPIKey,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("clockify.client"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Now returns the clock the client measures running entries against.
func (c *Client) Now() func() time.Time {
	return c.now
}

// APIError is a non-2xx response from Clockify.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clockify: unexpected status %d: %s", e.StatusCode, e.Body)
}

// TransportError is a network-level failure reaching Clockify (connection
// refused, timeout), as opposed to a response carrying a non-2xx status.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("clockify: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CurrentUser returns the account the API key belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var user User
	if err := c.get(ctx, "/user", nil, &user); err != nil {
		return User{}, fmt.Errorf("fetch current user: %w", err)
	}
	return user, nil
}

// Workspaces lists all workspaces visible to the account.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var workspaces []Workspace
	if err := c.get(ctx, "/workspaces", nil, &workspaces); err != nil {
		return nil, fmt.Errorf("fetch workspaces: %w", err)
	}
	return workspaces, nil
}

// Projects lists every project in the workspace, paging until exhaustion.
func (c *Client) Projects(ctx context.Context, workspaceID string) ([]Project, error) {
	var all []Project
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("page-size", strconv.Itoa(c.pageSize))

		var batch []Project
		if err := c.get(ctx, "/workspaces/"+workspaceID+"/projects", params, &batch); err != nil {
			return nil, fmt.Errorf("fetch projects page %d: %w", page, err)
		}

		all = append(all, batch...)
		if len(batch) < c.pageSize {
			return all, nil
		}
	}
}

// TimeEntries returns every time entry for the user in the inclusive date
// range, paging until a short or empty page. A full final page costs at most
// one extra round trip; the API has no has-more flag.
func (c *Client) TimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]TimeEntry, error) {
	var all []TimeEntry
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("start", start.UTC().Format(time.RFC3339))
		params.Set("end", end.UTC().Format(time.RFC3339))
		params.Set("page", strconv.Itoa(page))
		params.Set("page-size", strconv.Itoa(c.pageSize))

		var batch []TimeEntry
		if err := c.get(ctx, "/workspaces/"+workspaceID+"/user/"+userID+"/time-entries", params, &batch); err != nil {
			return nil, fmt.Errorf("fetch time entries page %d: %w", page, err)
		}

		all = append(all, batch...)
		if len(batch) < c.pageSize {
			return all, nil
		}
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
