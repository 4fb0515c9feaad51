package service

import (
	"context"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourdesk/internal/config"
	customerdomain "github.com/smallbiznis/hourdesk/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/hourdesk/internal/observability/metrics"
	"github.com/smallbiznis/hourdesk/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Config       config.Config
	Tracker      domain.TimeTracker
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
	Metrics      *obsmetrics.SyncMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	cfg          config.Config
	tracker      domain.TimeTracker
	repo         domain.Repository
	customerRepo customerdomain.Repository
	metrics      *obsmetrics.SyncMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reconcile.service"),
		genID:        p.GenID,
		cfg:          p.Config,
		tracker:      p.Tracker,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		metrics:      p.Metrics,
	}
}

func (s *Service) Run(ctx context.Context, req domain.RunRequest) (domain.SyncReport, error) {
	now := s.tracker.Now()
	startedAt := now()

	if !s.cfg.ClockifyConfigured() {
		return domain.SyncReport{}, domain.ErrNotConfigured
	}

	start := req.Start
	if start.IsZero() {
		start = time.Date(startedAt.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	end := req.End
	if end.IsZero() {
		end = startedAt
	}

	report, err := s.run(ctx, start, end, startedAt, now)
	finishedAt := now()

	status := domain.RunStatusSucceeded
	errText := ""
	if err != nil {
		status = domain.RunStatusFailed
		errText = err.Error()
	}
	s.recordRun(ctx, domain.SyncRun{
		ID:             s.genID.Generate(),
		Status:         status,
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		UpdatedCount:   report.UpdatedCount,
		UnmatchedCount: len(report.UnmatchedClients),
		TotalHours:     report.TotalHours,
		Error:          errText,
	})
	s.metrics.RecordRun(status, report.UpdatedCount, len(report.UnmatchedClients), finishedAt.Sub(startedAt))

	if err != nil {
		return domain.SyncReport{}, err
	}

	report.StartedAt = startedAt
	report.FinishedAt = finishedAt
	return report, nil
}

func (s *Service) run(ctx context.Context, start, end, startedAt time.Time, now func() time.Time) (domain.SyncReport, error) {
	user, err := s.tracker.CurrentUser(ctx)
	if err != nil {
		return domain.SyncReport{}, err
	}

	workspaces, err := s.tracker.Workspaces(ctx)
	if err != nil {
		return domain.SyncReport{}, err
	}
	if len(workspaces) == 0 {
		return domain.SyncReport{}, domain.ErrNoWorkspace
	}
	workspace := workspaces[0]

	s.log.Info("sync run started",
		zap.String("workspace_id", workspace.ID),
		zap.String("workspace", workspace.Name),
		zap.Time("range_start", start),
		zap.Time("range_end", end),
	)

	projects, err := s.tracker.Projects(ctx, workspace.ID)
	if err != nil {
		return domain.SyncReport{}, err
	}

	entries, err := s.tracker.TimeEntries(ctx, workspace.ID, user.ID, start, end)
	if err != nil {
		return domain.SyncReport{}, err
	}

	aggregates := aggregate(entries, buildProjectIndex(projects), now)

	report, err := s.apply(ctx, aggregates, now)
	if err != nil {
		return report, err
	}

	s.log.Info("sync run finished",
		zap.Int("clients", len(aggregates)),
		zap.Int("entries", len(entries)),
		zap.Int("updated", report.UpdatedCount),
		zap.Strings("unmatched", report.UnmatchedClients),
	)
	return report, nil
}

// apply writes rounded totals for every matched customer inside a single
// transaction. Any write failure rolls back the whole batch; hours_used is
// an absolute overwrite, so re-running the sync is idempotent.
func (s *Service) apply(ctx context.Context, aggregates map[string]*domain.ClientAggregate, now func() time.Time) (domain.SyncReport, error) {
	report := domain.SyncReport{
		UnmatchedClients: []string{},
		AmbiguousMatches: []string{},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range sortedClientNames(aggregates) {
			agg := aggregates[name]

			match, err := s.customerRepo.FindByBillingName(ctx, tx, name)
			if err != nil {
				return err
			}
			if match.Customer == nil {
				report.UnmatchedClients = append(report.UnmatchedClients, name)
				continue
			}
			if match.Matched > 1 {
				report.AmbiguousMatches = append(report.AmbiguousMatches, name)
				s.log.Warn("multiple customers match client name, using lowest id",
					zap.String("client", name),
					zap.Int("matches", match.Matched),
					zap.Int64("customer_id", int64(match.Customer.ID)),
				)
			}

			hours := round2(agg.Hours)
			if err := s.customerRepo.UpdateHoursUsed(ctx, tx, match.Customer.ID, hours, now()); err != nil {
				return err
			}

			s.log.Info("customer hours updated",
				zap.String("client", name),
				zap.Float64("hours", hours),
				zap.Int("entries", agg.Entries),
			)
			report.UpdatedCount++
			report.TotalHours += hours
		}
		return nil
	})
	if err != nil {
		return domain.SyncReport{UnmatchedClients: []string{}, AmbiguousMatches: []string{}}, err
	}

	return report, nil
}

func (s *Service) ListRuns(ctx context.Context, req domain.ListRunsRequest) ([]domain.SyncRun, error) {
	return s.repo.ListRuns(ctx, s.db, req.Limit)
}

// recordRun persists the audit row outside the customer transaction; a
// failure here must not fail an otherwise successful run.
func (s *Service) recordRun(ctx context.Context, run domain.SyncRun) {
	if err := s.repo.InsertRun(ctx, s.db, &run); err != nil {
		s.log.Warn("failed to record sync run", zap.Error(err))
	}
}

func round2(hours float64) float64 {
	return math.Round(hours*100) / 100
}
