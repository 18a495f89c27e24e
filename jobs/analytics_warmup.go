package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/commesse/internal/analytics"
	"github.com/odyssey-erp/commesse/internal/finance"
	jobmetrics "github.com/odyssey-erp/commesse/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportWarmer builds (and thereby caches) a tenant report.
type ReportWarmer interface {
	GetReport(ctx context.Context, f analytics.ReportFilter) (finance.Report, error)
}

// TenantLister enumerates the tenants to warm.
type TenantLister interface {
	TenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// AnalyticsWarmupJob precomputes the current-year report for each tenant so
// the first dashboard load of the day hits the cache.
type AnalyticsWarmupJob struct {
	Analytics ReportWarmer
	Tenants   TenantLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(analyticsSvc ReportWarmer, tenants TenantLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Analytics: analyticsSvc,
		Tenants:   tenants,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the time source.
func (j *AnalyticsWarmupJob) WithClock(clock func() time.Time) *AnalyticsWarmupJob {
	j.clock = clock
	return j
}

// Handle processes analytics warmup tasks. A failing tenant is logged and
// skipped; the run fails only when no tenant could be warmed.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("analytics warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskAnalyticsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	tenants, err := j.tenants(ctx, payload)
	if err != nil {
		logger.Error("load warmup tenants", slog.Any("error", err))
		return err
	}
	if len(tenants) == 0 {
		logger.Info("no tenants discovered for warmup")
		return nil
	}

	now := j.now()
	started := time.Now()
	warmed := 0
	var lastErr error
	for _, tenantID := range tenants {
		if err := j.warmTenant(ctx, tenantID, now); err != nil {
			lastErr = err
			logger.Error("warm tenant", slog.String("tenant_id", tenantID.String()), slog.Any("error", err))
			continue
		}
		warmed++
	}

	logger.Info("completed analytics warmup",
		slog.Int("tenants", len(tenants)),
		slog.Int("warmed", warmed),
		slog.Duration("duration", time.Since(started)))
	if warmed == 0 && lastErr != nil {
		return fmt.Errorf("analytics warmup: every tenant failed: %w", lastErr)
	}
	return nil
}

func (j *AnalyticsWarmupJob) tenants(ctx context.Context, payload WarmupPayload) ([]uuid.UUID, error) {
	if payload.TenantID != nil {
		return []uuid.UUID{*payload.TenantID}, nil
	}
	if j.Tenants == nil {
		return nil, errors.New("analytics warmup: tenant lister not configured")
	}
	return j.Tenants.TenantIDs(ctx)
}

func (j *AnalyticsWarmupJob) warmTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) error {
	tenantCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	today := finance.DateOf(now)
	_, err := j.Analytics.GetReport(tenantCtx, analytics.ReportFilter{
		TenantID: tenantID,
		Filter: finance.Filter{Range: finance.DateRange{
			From: finance.DateOf(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)),
			To:   today,
		}},
		AsOf: today,
	})
	return err
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsWarmup))
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalyticsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
