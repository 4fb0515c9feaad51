package clockify

import (
	"encoding/json"
	"strings"
	"time"
)

// User is the authenticated Clockify account.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	DefaultWorkspace string `json:"defaultWorkspace"`
	ActiveWorkspace  string `json:"activeWorkspace"`
}

// Workspace is a top-level grouping boundary containing projects, clients
// and time entries.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project carries the client linkage used to resolve entries that do not
// reference a client directly.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
}

// TimeEntry is one logged interval of work. Entries from the detailed report
// carry clientId/clientName directly; entries from the per-user listing only
// carry projectId.
type TimeEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	Billable     bool         `json:"billable"`
	ProjectID    string       `json:"projectId"`
	ClientID     string       `json:"clientId"`
	ClientName   string       `json:"clientName"`
	TimeInterval TimeInterval `json:"timeInterval"`
}

// TimeInterval is the wire shape of an entry's duration. The duration field
// is either an ISO-8601 period string or a raw second count depending on the
// endpoint; a still-running entry has no end and no duration.
type TimeInterval struct {
	Start    time.Time
	End      time.Time
	Duration Duration
}

func (t *TimeInterval) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start    *time.Time      `json:"start"`
		End      *time.Time      `json:"end"`
		Duration json.RawMessage `json:"duration"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Start != nil {
		t.Start = *raw.Start
	}
	if raw.End != nil {
		t.End = *raw.End
	}

	t.Duration = durationFromRaw(raw.Duration, t.Start, t.End)
	return nil
}

func (t TimeInterval) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if !t.Start.IsZero() {
		out["start"] = t.Start.Format(time.RFC3339)
	}
	if !t.End.IsZero() {
		out["end"] = t.End.Format(time.RFC3339)
	}
	switch t.Duration.Kind {
	case DurationISO:
		out["duration"] = t.Duration.ISO
	case DurationSeconds:
		out["duration"] = t.Duration.Seconds
	}
	return json.Marshal(out)
}

func durationFromRaw(raw json.RawMessage, start, end time.Time) Duration {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed != "" && trimmed != "null" {
		var iso string
		if err := json.Unmarshal(raw, &iso); err == nil {
			return Duration{Kind: DurationISO, ISO: iso}
		}
		var seconds float64
		if err := json.Unmarshal(raw, &seconds); err == nil {
			return Duration{Kind: DurationSeconds, Seconds: seconds}
		}
	}
	return Duration{Kind: DurationInterval, Start: start, End: end}
}
