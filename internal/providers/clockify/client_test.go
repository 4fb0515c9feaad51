package clockify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/hourdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler, pageSize int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(config.Config{
		ClockifyAPIKey:   "test-key",
		ClockifyBaseURL:  srv.URL,
		ClockifyTimeout:  5 * time.Second,
		ClockifyPageSize: pageSize,
	}, zap.NewNop())
	return client, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestCurrentUser(t *testing.T) {
	var gotKey string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		gotKey = r.Header.Get("X-Api-Key")
		writeJSON(w, User{ID: "u1", Email: "ops@example.com"})
	}), 50)

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "test-key", gotKey)
}

func TestWorkspaces(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspaces", r.URL.Path)
		writeJSON(w, []Workspace{{ID: "w1", Name: "Main"}})
	}), 50)

	workspaces, err := client.Workspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, workspaces, 1)
	assert.Equal(t, "w1", workspaces[0].ID)
}

func makeEntries(n int) []TimeEntry {
	entries := make([]TimeEntry, n)
	for i := range entries {
		entries[i] = TimeEntry{
			ID:       fmt.Sprintf("e%d", i),
			Billable: true,
			TimeInterval: TimeInterval{
				Duration: Duration{Kind: DurationISO, ISO: "PT1H"},
			},
		}
	}
	return entries
}

func TestTimeEntries_PaginatesUntilShortPage(t *testing.T) {
	pageSize := 2
	pages := map[string][]TimeEntry{
		"1": makeEntries(2),
		"2": makeEntries(1),
	}
	var requests []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspaces/w1/user/u1/time-entries", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page-size"))
		page := r.URL.Query().Get("page")
		requests = append(requests, page)
		writeJSON(w, pages[page])
	}), pageSize)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	entries, err := client.TimeEntries(context.Background(), "w1", "u1", start, end)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, []string{"1", "2"}, requests)
}

func TestTimeEntries_ShortFirstPageStopsImmediately(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, makeEntries(1))
	}), 2)

	entries, err := client.TimeEntries(context.Background(), "w1", "u1", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, calls)
}

func TestTimeEntries_FullFinalPageCostsOneExtraRequest(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			writeJSON(w, makeEntries(2))
			return
		}
		writeJSON(w, []TimeEntry{})
	}), 2)

	entries, err := client.TimeEntries(context.Background(), "w1", "u1", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, calls)
}

func TestTimeEntries_ErrorAbortsWholeFetch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			writeJSON(w, makeEntries(2))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}), 2)

	entries, err := client.TimeEntries(context.Background(), "w1", "u1", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.ErrorContains(t, err, "page 2")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestTimeEntries_ConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := New(config.Config{
		ClockifyAPIKey:   "test-key",
		ClockifyBaseURL:  srv.URL,
		ClockifyTimeout:  time.Second,
		ClockifyPageSize: 2,
	}, zap.NewNop())
	srv.Close()

	entries, err := client.TimeEntries(context.Background(), "w1", "u1", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Nil(t, entries)
	assert.ErrorContains(t, err, "page 1")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Error(t, transportErr.Err)
}

func TestProjects_Paginates(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workspaces/w1/projects", r.URL.Path)
		if r.URL.Query().Get("page") == "1" {
			writeJSON(w, []Project{
				{ID: "p1", ClientID: "c1", ClientName: "Acme"},
				{ID: "p2", ClientID: "c2", ClientName: "Globex"},
			})
			return
		}
		writeJSON(w, []Project{{ID: "p3", ClientID: "c1", ClientName: "Acme"}})
	}), 2)

	projects, err := client.Projects(context.Background(), "w1")
	require.NoError(t, err)
	assert.Len(t, projects, 3)
}
