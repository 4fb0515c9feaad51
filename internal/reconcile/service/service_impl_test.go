package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/hourdesk/internal/config"
	customerdomain "github.com/smallbiznis/hourdesk/internal/customer/domain"
	customerrepo "github.com/smallbiznis/hourdesk/internal/customer/repository"
	"github.com/smallbiznis/hourdesk/internal/providers/clockify"
	"github.com/smallbiznis/hourdesk/internal/reconcile/domain"
	"github.com/smallbiznis/hourdesk/internal/reconcile/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeTracker struct {
	user       clockify.User
	workspaces []clockify.Workspace
	projects   []clockify.Project
	entries    []clockify.TimeEntry
	clock      time.Time

	fetchCalls int
	entriesErr error
}

func (f *fakeTracker) CurrentUser(ctx context.Context) (clockify.User, error) {
	f.fetchCalls++
	return f.user, nil
}

func (f *fakeTracker) Workspaces(ctx context.Context) ([]clockify.Workspace, error) {
	f.fetchCalls++
	return f.workspaces, nil
}

func (f *fakeTracker) Projects(ctx context.Context, workspaceID string) ([]clockify.Project, error) {
	f.fetchCalls++
	return f.projects, nil
}

func (f *fakeTracker) TimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]clockify.TimeEntry, error) {
	f.fetchCalls++
	if f.entriesErr != nil {
		return nil, f.entriesErr
	}
	return f.entries, nil
}

func (f *fakeTracker) Now() func() time.Time {
	return func() time.Time { return f.clock }
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		user:       clockify.User{ID: "u1", Email: "ops@example.com"},
		workspaces: []clockify.Workspace{{ID: "w1", Name: "Main"}},
		clock:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&customerdomain.Customer{}, &domain.SyncRun{}))
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, id int64, customerName, companyName string, purchased, used float64) {
	t.Helper()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&customerdomain.Customer{
		ID:             snowflake.ID(id),
		CustomerName:   customerName,
		CompanyName:    companyName,
		Email:          fmt.Sprintf("c%d@example.com", id),
		HoursPurchased: purchased,
		HoursUsed:      used,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error)
}

func newService(t *testing.T, db *gorm.DB, cfg config.Config, tracker domain.TimeTracker, repo customerdomain.Repository) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Config:       cfg,
		Tracker:      tracker,
		Repo:         repository.Provide(),
		CustomerRepo: repo,
	})
}

func configured() config.Config {
	return config.Config{ClockifyAPIKey: "real-key"}
}

func TestRun_NotConfigured(t *testing.T) {
	tracker := newFakeTracker()
	svc := newService(t, openTestDB(t), config.Config{ClockifyAPIKey: config.PlaceholderAPIKey}, tracker, customerrepo.Provide())

	_, err := svc.Run(context.Background(), domain.RunRequest{})
	require.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Zero(t, tracker.fetchCalls)
}

func TestRun_NoWorkspace(t *testing.T) {
	tracker := newFakeTracker()
	tracker.workspaces = nil
	svc := newService(t, openTestDB(t), configured(), tracker, customerrepo.Provide())

	_, err := svc.Run(context.Background(), domain.RunRequest{})
	require.ErrorIs(t, err, domain.ErrNoWorkspace)
}

func TestRun_CaseInsensitiveMatchWritesRoundedHours(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, 1, "acme corp", "Acme Industries", 40, 5)

	tracker := newFakeTracker()
	// 12h20m42s = 12.345h, rounded half away from zero to 12.35.
	tracker.entries = []clockify.TimeEntry{
		isoEntry("e1", "c1", "ACME CORP", "", "PT12H20M42S", true),
	}
	svc := newService(t, db, configured(), tracker, customerrepo.Provide())

	report, err := svc.Run(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.UpdatedCount)
	assert.InDelta(t, 12.35, report.TotalHours, 1e-9)
	assert.Empty(t, report.UnmatchedClients)

	var got customerdomain.Customer
	require.NoError(t, db.First(&got, "id = ?", snowflake.ID(1)).Error)
	assert.InDelta(t, 12.35, got.HoursUsed, 1e-9)
}

func TestRun_MatchesOnCompanyName(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, 1, "Jane Smith", "globex", 40, 0)

	tracker := newFakeTracker()
	tracker.entries = []clockify.TimeEntry{
		isoEntry("e1", "c1", "Globex", "", "PT2H", true),
	}
	svc := newService(t, db, configured(), tracker, customerrepo.Provide())

	report, err := svc.Run(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.UpdatedCount)

	var got customerdomain.Customer
	require.NoError(t, db.First(&got, "id = ?", snowflake.ID(1)).Error)
	assert.InDelta(t, 2.0, got.HoursUsed, 1e-9)
}

func TestRun_UnmatchedClientsReported(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, 1, "Acme", "Acme Corp", 40, 0)

	tracker := newFakeTracker()
	tracker.entries = []clockify.TimeEntry{
		isoEntry("e1", "c1", "Acme", "", "PT1H", true),
		isoEntry("e2", "c2", "Unknown Client", "", "PT3H", true),
	}
	svc := newService(t, db, configured(), tracker, customerrepo.Provide())

	report, err := svc.Run(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.UpdatedCount)
	assert.Equal(t, []string{"Unknown Client"}, report.UnmatchedClients)
	assert.InDelta(t, 1.0, report.TotalHours, 1e-9)
}

func TestRun_OverwriteIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, 1, "Acme", "Acme Corp", 40, 99)

	tracker := newFakeTracker()
	tracker.entries = []clockify.TimeEntry{
		isoEntry("e1", "c1", "Acme", "", "PT3H", true),
	}
	svc := newService(t, db, configured(), tracker, customerrepo.Provide())

	for i := 0; i < 2; i++ {
		report, err := svc.Run(context.Background(), domain.RunRequest{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.UpdatedCount)
	}

	var got customerdomain.Customer
	require.NoError(t, db.First(&got, "id = ?", snowflake.ID(1)).Error)
	assert.InDelta(t, 3.0, got.HoursUsed, 1e-9)
}

func TestRun_AmbiguousMatchUsesLowestID(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, 2, "Acme", "Acme Corp", 40, 0)
	seedCustomer(t, db, 1, "acme", "Other", 40, 0)

	tracker := newFakeTracker()
	tracker.entries = []clockify.TimeEntry{
		isoEntry("e1", "c1", "ACME", "", "PT5H", true),
	}
	svc := newService(t, db, configured(), tracker, customerrepo.Provide())

	report, err := svc.Run(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, report.AmbiguousMatches)

	var low, high customerdomain.Customer
	require.NoError(t, db.First(&low, "id = ?", snowflake.ID(1)).Error)
	require.NoError(t, db.First(&high, "id = ?", snowflake.ID(2)).Error)
	assert.InDelta(t, 5.0, low.HoursUsed, 1e-9)
	assert.Zero(t, high.HoursUsed)
}

// failingCustomerRepo passes through to the real repository until the nth
// hours write, then fails, forcing a mid-batch rollback.
type failingCustomerRepo struct {
	customerdomain.Repository
	failOnCall int
	calls      int
}

func (r *failingCustomerRepo) UpdateHoursUsed(ctx context.Context, db *gorm.DB, id snowflake.ID, hours float64, now time.Time) error {
	r.calls++
	if r.calls == r.failOnCall {
		return errors.New("write rejected")
	}
	return r.Repository.UpdateHoursUsed(ctx, db, id, hours, now)
}

func TestRun_WriteFailureRollsBackWholeBatch(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, 1, "Acme", "Acme Corp", 40, 7)
	seedCustomer(t, db, 2, "Globex", "Globex Inc", 40, 8)

	tracker := newFakeTracker()
	tracker.entries = []clockify.TimeEntry{
		isoEntry("e1", "c1", "Acme", "", "PT2H", true),
		isoEntry("e2", "c2", "Globex", "", "PT4H", true),
	}
	repo := &failingCustomerRepo{Repository: customerrepo.Provide(), failOnCall: 2}
	svc := newService(t, db, configured(), tracker, repo)

	_, err := svc.Run(context.Background(), domain.RunRequest{})
	require.ErrorContains(t, err, "write rejected")

	var acme, globex customerdomain.Customer
	require.NoError(t, db.First(&acme, "id = ?", snowflake.ID(1)).Error)
	require.NoError(t, db.First(&globex, "id = ?", snowflake.ID(2)).Error)
	assert.InDelta(t, 7.0, acme.HoursUsed, 1e-9)
	assert.InDelta(t, 8.0, globex.HoursUsed, 1e-9)
}

func TestRun_RecordsAuditRow(t *testing.T) {
	db := openTestDB(t)
	seedCustomer(t, db, 1, "Acme", "Acme Corp", 40, 0)

	tracker := newFakeTracker()
	tracker.entries = []clockify.TimeEntry{
		isoEntry("e1", "c1", "Acme", "", "PT1H", true),
		isoEntry("e2", "c2", "Nobody", "", "PT1H", true),
	}
	svc := newService(t, db, configured(), tracker, customerrepo.Provide())

	_, err := svc.Run(context.Background(), domain.RunRequest{})
	require.NoError(t, err)

	runs, err := svc.ListRuns(context.Background(), domain.ListRunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusSucceeded, runs[0].Status)
	assert.Equal(t, 1, runs[0].UpdatedCount)
	assert.Equal(t, 1, runs[0].UnmatchedCount)
}

func TestRun_FailedRunRecordedWithError(t *testing.T) {
	db := openTestDB(t)

	tracker := newFakeTracker()
	tracker.entriesErr = errors.New("upstream down")
	svc := newService(t, db, configured(), tracker, customerrepo.Provide())

	_, err := svc.Run(context.Background(), domain.RunRequest{})
	require.ErrorContains(t, err, "upstream down")

	runs, err := svc.ListRuns(context.Background(), domain.ListRunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "upstream down")
}
