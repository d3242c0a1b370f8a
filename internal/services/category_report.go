package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// Epoch is the default start of a report window.
var Epoch = core.NewDate(1970, 1, 1)

// CategoryReportService answers the exact per-category expense report from
// stored rows only.
type CategoryReportService struct {
	agg    store.CategoryAggregator
	logger *log.Logger
}

func NewCategoryReportService(agg store.CategoryAggregator, logger *log.Logger) *CategoryReportService {
	return &CategoryReportService{agg: agg, logger: logger.WithComponent(log.ComponentAggregator)}
}

// ReportWindow resolves optional YYYY-MM-DD bounds. Missing start defaults to
// the epoch, missing end to now's calendar day.
func ReportWindow(start, end string, now time.Time) (core.Date, core.Date, error) {
	from, to := Epoch, core.DateOf(now)
	if s := strings.TrimSpace(start); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("startDate: %w", err)
		}
		from = d
	}
	if e := strings.TrimSpace(end); e != "" {
		d, err := core.ParseDate(e)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("endDate: %w", err)
		}
		to = d
	}
	if to.Before(from.Time) {
		return core.Date{}, core.Date{}, fmt.Errorf("%w: endDate before startDate", core.ErrInvalidDate)
	}
	return from, to, nil
}

// ParseDetailCategories parses a comma-separated category list. Blank input
// yields a nil filter, which keeps every bucket detailed.
func ParseDetailCategories(raw string) core.DetailFilter {
	var cats []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	return core.NewDetailFilter(cats...)
}

// AggregateByCategory validates owner, runs one aggregation against the store
// and elides members outside detail.
func (s *CategoryReportService) AggregateByCategory(ctx context.Context, owner string, start, end core.Date, detail core.DetailFilter) ([]core.CategoryBucket, error) {
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}
	buckets, err := s.agg.AggregateExpensesByCategory(ctx, owner, start, end)
	if err != nil {
		s.logger.ErrorContext(ctx, "Category aggregation failed",
			log.FieldOwner, owner,
			log.FieldOperation, log.OpAggregate,
			log.FieldError, err)
		return nil, err
	}
	return ApplyDetailFilter(buckets, detail), nil
}
