package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/commesse/internal/finance"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// Repository loads the tenant data the engine aggregates.
type Repository interface {
	LoadRecordSet(ctx context.Context, tenantID uuid.UUID, r finance.DateRange) (finance.RecordSet, error)
	WeeklyHours(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]float64, error)
}

// ReportFilter scopes a report request.
type ReportFilter struct {
	TenantID       uuid.UUID
	Filter         finance.Filter
	AsOf           finance.Date
	OpeningBalance float64
	CashOnHand     float64
	TopN           int
}

// Validate checks dates and bounds.
func (f ReportFilter) Validate() error {
	if f.TenantID == uuid.Nil {
		return fmt.Errorf("analytics: %w: tenant required", shared.ErrValidation)
	}
	if _, ok := finance.ParseDate(f.AsOf); !ok {
		return fmt.Errorf("analytics: %w: as_of must be YYYY-MM-DD", shared.ErrValidation)
	}
	r := f.Filter.Range
	for _, d := range []finance.Date{r.From, r.To} {
		if _, ok := finance.ParseDate(d); !d.IsZero() && !ok {
			return fmt.Errorf("analytics: %w: invalid date %q", shared.ErrValidation, d)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To < r.From {
		return fmt.Errorf("analytics: %w: to must not precede from", shared.ErrValidation)
	}
	return nil
}

// token renders the filter as a stable cache key fragment.
func (f ReportFilter) token() string {
	id := func(v *uuid.UUID) string {
		if v == nil {
			return "-"
		}
		return v.String()
	}
	date := func(d finance.Date) string {
		if d.IsZero() {
			return "-"
		}
		return string(d)
	}
	return strings.Join([]string{
		date(f.Filter.Range.From),
		date(f.Filter.Range.To),
		id(f.Filter.ClientID),
		id(f.Filter.ProjectID),
		id(f.Filter.EmployeeID),
		string(f.AsOf),
		strconv.FormatFloat(f.OpeningBalance, 'f', 2, 64),
		strconv.FormatFloat(f.CashOnHand, 'f', 2, 64),
		strconv.Itoa(f.TopN),
	}, ":")
}

// Service coordinates report building with the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cache != nil {
		cache.logger = logger
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// GetReport returns the tenant report for f, memoised per record-set version.
// Concurrent identical requests share one build.
func (s *Service) GetReport(ctx context.Context, f ReportFilter) (finance.Report, error) {
	if err := f.Validate(); err != nil {
		return finance.Report{}, err
	}
	key, err := s.cache.BuildKey(ctx, f.TenantID, "report", f.token())
	if err != nil {
		s.logger.Warn("analytics cache unavailable", slog.String("tenant_id", f.TenantID.String()), slog.Any("error", err))
		return s.build(ctx, f)
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var report finance.Report
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
			return s.build(ctx, f)
		})
		if err != nil {
			return nil, err
		}
		return report, nil
	})
	if err != nil {
		return finance.Report{}, err
	}
	return v.(finance.Report), nil
}

func (s *Service) build(ctx context.Context, f ReportFilter) (finance.Report, error) {
	set, err := s.repo.LoadRecordSet(ctx, f.TenantID, f.Filter.Range)
	if err != nil {
		return finance.Report{}, fmt.Errorf("analytics: load records: %w", err)
	}
	weekly, err := s.repo.WeeklyHours(ctx, f.TenantID)
	if err != nil {
		return finance.Report{}, fmt.Errorf("analytics: load capacity: %w", err)
	}
	if f.Filter.EmployeeID != nil {
		weekly = map[uuid.UUID]float64{*f.Filter.EmployeeID: weekly[*f.Filter.EmployeeID]}
	}
	scoped := set.Apply(f.Filter)
	return finance.BuildReport(set, finance.ReportOptions{
		Filter:         f.Filter,
		AsOf:           f.AsOf,
		OpeningBalance: f.OpeningBalance,
		CashOnHand:     f.CashOnHand,
		AvailableHours: finance.CapacityForRange(weekly, f.Filter.Range, f.AsOf, scoped.TimeEntries),
		TopN:           f.TopN,
	}), nil
}

// Invalidate bumps the tenant's record-set version so cached reports are
// rebuilt on next access.
func (s *Service) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if _, err := s.cache.Bump(ctx, tenantID); err != nil {
		return fmt.Errorf("analytics: invalidate %s: %w", tenantID, err)
	}
	return nil
}
