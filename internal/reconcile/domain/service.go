package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/hourdesk/internal/providers/clockify"
)

// TimeTracker is the slice of the Clockify client the reconciliation
// pipeline consumes. Satisfied by *clockify.Client; narrowed here so tests
// can substitute doubles.
type TimeTracker interface {
	CurrentUser(ctx context.Context) (clockify.User, error)
	Workspaces(ctx context.Context) ([]clockify.Workspace, error)
	Projects(ctx context.Context, workspaceID string) ([]clockify.Project, error)
	TimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]clockify.TimeEntry, error)
	Now() func() time.Time
}

type Service interface {
	// Run executes one fetch → aggregate → apply cycle. All matched
	// customers advance together or not at all.
	Run(context.Context, RunRequest) (SyncReport, error)
	ListRuns(context.Context, ListRunsRequest) ([]SyncRun, error)
}
