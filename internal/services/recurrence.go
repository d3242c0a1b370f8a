// Package services provides business logic and orchestration services.
//
// This file implements recurrence projection. Each frequency has its own
// stepper that computes the k-th occurrence of a template directly from the
// template's anchor date, so month-end clamping never drifts.

package services

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
)

// Stepper is the strategy interface for advancing a recurring template.
type Stepper interface {
	// Nth returns the k-th occurrence after anchor (k >= 1).
	Nth(anchor core.Date, k int) core.Date
}

// DailyStepper advances by k days.
type DailyStepper struct{}

func (DailyStepper) Nth(anchor core.Date, k int) core.Date {
	return anchor.AddDays(k)
}

// WeeklyStepper advances by 7k days.
type WeeklyStepper struct{}

func (WeeklyStepper) Nth(anchor core.Date, k int) core.Date {
	return anchor.AddDays(7 * k)
}

// MonthlyStepper advances by k months, clamping the anchor day to the
// target month's last day.
type MonthlyStepper struct{}

func (MonthlyStepper) Nth(anchor core.Date, k int) core.Date {
	return anchor.AddMonthsClamped(k)
}

// YearlyStepper advances by k years. Feb 29 lands on Feb 28 in non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Nth(anchor core.Date, k int) core.Date {
	return anchor.AddYearsClamped(k)
}

var steppers = map[core.Frequency]Stepper{
	core.Daily:   DailyStepper{},
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// GetStepper returns the stepper for a frequency.
func GetStepper(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, f)
	}
	return s, nil
}

// SkippedTemplate is a recurring row that could not be projected.
type SkippedTemplate struct {
	TemplateID string
	Frequency  core.Frequency
	Reason     string
}

// Projection is the result of projecting a transaction set.
type Projection struct {
	Occurrences []core.Transaction
	Skipped     []SkippedTemplate
}

// Project expands every recurring template in txs into its occurrences after
// the anchor date and up to horizon inclusive. The anchor itself is never
// emitted. Output order follows template order, then date.
func Project(txs []core.Transaction, horizon core.Date) Projection {
	var p Projection
	for _, tpl := range txs {
		if !tpl.IsRecurring {
			continue
		}
		stepper, err := GetStepper(tpl.Frequency)
		if err != nil {
			p.Skipped = append(p.Skipped, SkippedTemplate{TemplateID: tpl.ID, Frequency: tpl.Frequency, Reason: "unknown frequency"})
			continue
		}
		if tpl.Date.IsEmpty() {
			p.Skipped = append(p.Skipped, SkippedTemplate{TemplateID: tpl.ID, Frequency: tpl.Frequency, Reason: "missing anchor date"})
			continue
		}
		for k := 1; ; k++ {
			next := stepper.Nth(tpl.Date, k)
			if next.After(horizon.Time) {
				break
			}
			p.Occurrences = append(p.Occurrences, occurrence(tpl, next))
		}
	}
	return p
}

func occurrence(tpl core.Transaction, d core.Date) core.Transaction {
	occ := tpl
	occ.ID = core.ProjectedID(tpl.ID, d)
	occ.Date = d
	occ.TemplateID = tpl.ID
	return occ
}

// Projector wraps Project with data-integrity logging.
type Projector struct {
	logger *log.Logger
}

func NewProjector(logger *log.Logger) *Projector {
	return &Projector{logger: logger.WithComponent(log.ComponentProjector)}
}

// Project returns the occurrences of txs up to the calendar day of horizon.
func (p *Projector) Project(ctx context.Context, txs []core.Transaction, horizon time.Time) []core.Transaction {
	res := Project(txs, core.DateOf(horizon))
	for _, s := range res.Skipped {
		p.logger.WarnContext(ctx, "Skipping recurring template",
			log.FieldTemplateID, s.TemplateID,
			log.FieldFrequency, string(s.Frequency),
			"reason", s.Reason,
			log.FieldErrorType, log.ErrorTypeDataIntegrity)
	}
	return res.Occurrences
}
