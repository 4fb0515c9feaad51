package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ClientAggregate accumulates billable hours for one remote billing client
// during a sync run. Keyed by the client name exactly as the provider
// reports it; matching against stored customers folds case later.
type ClientAggregate struct {
	ClientID   string  `json:"client_id,omitempty"`
	ClientName string  `json:"client_name"`
	Hours      float64 `json:"hours"`
	Entries    int     `json:"entries"`
}

// SyncReport summarizes one reconciliation run for operator-facing reporting.
type SyncReport struct {
	UpdatedCount     int       `json:"updated_count"`
	TotalHours       float64   `json:"total_hours"`
	UnmatchedClients []string  `json:"unmatched_clients"`
	AmbiguousMatches []string  `json:"ambiguous_matches"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// SyncRun is the persisted audit record of a reconciliation run.
type SyncRun struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Status         string       `gorm:"not null" json:"status"`
	StartedAt      time.Time    `gorm:"not null" json:"started_at"`
	FinishedAt     time.Time    `gorm:"not null" json:"finished_at"`
	UpdatedCount   int          `gorm:"not null;default:0" json:"updated_count"`
	UnmatchedCount int          `gorm:"not null;default:0" json:"unmatched_count"`
	TotalHours     float64      `gorm:"not null;default:0" json:"total_hours"`
	Error          string       `gorm:"not null;default:''" json:"error,omitempty"`
}

func (SyncRun) TableName() string { return "sync_runs" }

const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RunRequest selects the reconciliation window. A zero Start defaults to the
// start of the current calendar year, a zero End to now.
type RunRequest struct {
	Start time.Time
	End   time.Time
}

type ListRunsRequest struct {
	Limit int
}

var (
	// ErrNotConfigured means no usable Clockify API key is present. Checked
	// before any network call.
	ErrNotConfigured = errors.New("clockify_not_configured")
	// ErrNoWorkspace means the configured account has zero workspaces.
	ErrNoWorkspace = errors.New("clockify_no_workspace")
)
