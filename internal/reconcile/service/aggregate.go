package service

import (
	"sort"
	"time"

	"github.com/smallbiznis/hourdesk/internal/providers/clockify"
	"github.com/smallbiznis/hourdesk/internal/reconcile/domain"
)

// projectClient is the client identity a project resolves to.
type projectClient struct {
	ID   string
	Name string
}

// buildProjectIndex flattens the workspace's projects into a
// projectID → client lookup. Built once per run, read-only afterwards.
func buildProjectIndex(projects []clockify.Project) map[string]projectClient {
	index := make(map[string]projectClient, len(projects))
	for _, project := range projects {
		if project.ID == "" || project.ClientName == "" {
			continue
		}
		index[project.ID] = projectClient{ID: project.ClientID, Name: project.ClientName}
	}
	return index
}

// resolveClient maps an entry to its billing client: a direct client
// reference on the entry wins, then the entry's project, else no client.
func resolveClient(entry clockify.TimeEntry, index map[string]projectClient) (projectClient, bool) {
	if entry.ClientName != "" {
		return projectClient{ID: entry.ClientID, Name: entry.ClientName}, true
	}
	if entry.ProjectID != "" {
		if client, ok := index[entry.ProjectID]; ok {
			return client, true
		}
	}
	return projectClient{}, false
}

// aggregate folds billable entries into per-client totals. Non-billable
// entries are skipped entirely, as are entries that resolve to no client.
// Hours accumulate at full precision; rounding happens only at apply time.
func aggregate(entries []clockify.TimeEntry, index map[string]projectClient, now func() time.Time) map[string]*domain.ClientAggregate {
	aggregates := make(map[string]*domain.ClientAggregate)
	for _, entry := range entries {
		if !entry.Billable {
			continue
		}
		client, ok := resolveClient(entry, index)
		if !ok {
			continue
		}

		agg, ok := aggregates[client.Name]
		if !ok {
			agg = &domain.ClientAggregate{ClientID: client.ID, ClientName: client.Name}
			aggregates[client.Name] = agg
		}
		agg.Hours += entry.TimeInterval.Duration.Hours(now)
		agg.Entries++
	}
	return aggregates
}

// sortedClientNames fixes the apply iteration order within a run so logs and
// write order are reproducible.
func sortedClientNames(aggregates map[string]*domain.ClientAggregate) []string {
	names := make([]string, 0, len(aggregates))
	for name := range aggregates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
