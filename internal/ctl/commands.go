package ctl

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/core"
	"ledger/internal/services"
)

type ownerRow struct {
	Owner string `csv:"owner" yaml:"owner"`
}

func (a *app) ownersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List owners with stored transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd.Context(), func(res *backend.BackendResult) error {
				owners, err := res.Store.ListOwners(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([]ownerRow, 0, len(owners))
				for _, o := range owners {
					rows = append(rows, ownerRow{Owner: o})
				}
				if owners == nil {
					owners = []string{}
				}
				return a.render(cmd.OutOrStdout(), owners, rows)
			})
		},
	}
}

func (a *app) buildView(cmd *cobra.Command, res *backend.BackendResult) ([]core.Transaction, error) {
	owner, err := a.owner()
	if err != nil {
		return nil, err
	}
	builder := services.NewLedgerViewBuilder(res.Store, services.NewProjector(a.logger), a.logger)
	return builder.BuildView(cmd.Context(), owner, a.now())
}

// viewEntry is the JSON shape of one row of the ledger view.
type viewEntry struct {
	ID          string         `json:"id"`
	Kind        core.Kind      `json:"kind"`
	Category    string         `json:"category"`
	Amount      core.Money     `json:"amount"`
	Date        core.Date      `json:"date"`
	Description string         `json:"description"`
	IsRecurring bool           `json:"is_recurring"`
	Frequency   core.Frequency `json:"frequency,omitempty"`
	Projected   bool           `json:"projected"`
	TemplateID  string         `json:"template_id,omitempty"`
}

func (a *app) viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print stored transactions followed by projected occurrences up to today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd.Context(), func(res *backend.BackendResult) error {
				view, err := a.buildView(cmd, res)
				if err != nil {
					return err
				}
				entries := make([]viewEntry, 0, len(view))
				for _, tx := range view {
					entries = append(entries, viewEntry{
						ID:          tx.ID,
						Kind:        tx.Kind,
						Category:    tx.Category,
						Amount:      tx.Amount,
						Date:        tx.Date,
						Description: tx.Description,
						IsRecurring: tx.IsRecurring,
						Frequency:   tx.Frequency,
						Projected:   tx.IsProjected(),
						TemplateID:  tx.TemplateID,
					})
				}
				return a.render(cmd.OutOrStdout(), entries, viewRows(view))
			})
		},
	}
}

type categoryReport struct {
	StartDate core.Date             `json:"start_date"`
	EndDate   core.Date             `json:"end_date"`
	Buckets   []core.CategoryBucket `json:"buckets"`
}

func (a *app) categoriesCmd() *cobra.Command {
	var start, end, categories string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Exact expense totals per category from stored rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := a.owner()
			if err != nil {
				return err
			}
			from, to, err := services.ReportWindow(start, end, a.now())
			if err != nil {
				return err
			}
			detail := services.ParseDetailCategories(categories)
			return a.withBackend(cmd.Context(), func(res *backend.BackendResult) error {
				reports := services.NewCategoryReportService(res.Store, a.logger)
				buckets, err := reports.AggregateByCategory(cmd.Context(), owner, from, to, detail)
				if err != nil {
					return err
				}
				if buckets == nil {
					buckets = []core.CategoryBucket{}
				}
				report := categoryReport{StartDate: from, EndDate: to, Buckets: buckets}
				return a.render(cmd.OutOrStdout(), report, bucketRows("", buckets))
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day of the window (YYYY-MM-DD, default 1970-01-01)")
	cmd.Flags().StringVar(&end, "end", "", "last day of the window (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&categories, "categories", "", "comma-separated categories that keep their members")
	return cmd
}

func (a *app) refFlag(cmd *cobra.Command, ref *string) {
	cmd.Flags().StringVar(ref, "ref", "", "reference day (YYYY-MM-DD, default today)")
}

func (a *app) refTime(raw string) (core.Date, error) {
	if raw == "" {
		return core.DateOf(a.now()), nil
	}
	return core.ParseDate(raw)
}

func (a *app) bucketsCmd() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Group the ledger view by kind and category for the annual and monthly windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.refTime(ref)
			if err != nil {
				return err
			}
			policy, err := a.policy()
			if err != nil {
				return err
			}
			return a.withBackend(cmd.Context(), func(res *backend.BackendResult) error {
				view, err := a.buildView(cmd, res)
				if err != nil {
					return err
				}
				expanded := services.NewAggregator(policy).ExpandedBuckets(view, day.Time)
				return a.render(cmd.OutOrStdout(), expanded, expandedRows(expanded))
			})
		},
	}
	a.refFlag(cmd, &ref)
	return cmd
}

// summaryOutput mirrors the HTTP summary payload.
type summaryOutput struct {
	AnnualWindow         services.WindowPolicy `json:"annual_window"`
	Summary              core.WindowSummary    `json:"summary"`
	TopCategories        core.TopCategories    `json:"top_categories"`
	CurrentMonthExpense  core.Money            `json:"current_month_expense"`
	PreviousMonthExpense core.Money            `json:"previous_month_expense"`
	SpendingDelta        decimal.Decimal       `json:"spending_delta_percent"`
}

func (a *app) summaryCmd() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Annual and monthly totals, top expense categories and month-over-month change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.refTime(ref)
			if err != nil {
				return err
			}
			sum, err := a.summarizer()
			if err != nil {
				return err
			}
			top := a.v.GetInt(keyTop)
			if top <= 0 {
				top = services.DefaultTopCategories
			}
			return a.withBackend(cmd.Context(), func(res *backend.BackendResult) error {
				view, err := a.buildView(cmd, res)
				if err != nil {
					return err
				}
				current := services.MonthlyExpense(view, day)
				previous := services.MonthlyExpense(view, services.PreviousMonth(day))
				out := summaryOutput{
					AnnualWindow:         sum.Policy(),
					Summary:              sum.Summarize(view, day.Time),
					TopCategories:        sum.TopCategories(view, day.Time, top),
					CurrentMonthExpense:  current,
					PreviousMonthExpense: previous,
					SpendingDelta:        services.SpendingDelta(current, previous),
				}
				return a.render(cmd.OutOrStdout(), out, summaryRows(out))
			})
		},
	}
	a.refFlag(cmd, &ref)
	cmd.Flags().Int(keyTop, services.DefaultTopCategories, "number of top expense categories")
	_ = a.v.BindPFlag(keyTop, cmd.Flags().Lookup(keyTop))
	return cmd
}

func (a *app) curveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curve",
		Short: "Cumulative income and expense per dated day of the ledger view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := a.summarizer()
			if err != nil {
				return err
			}
			return a.withBackend(cmd.Context(), func(res *backend.BackendResult) error {
				view, err := a.buildView(cmd, res)
				if err != nil {
					return err
				}
				points := sum.BalanceCurve(view)
				if points == nil {
					points = []core.BalancePoint{}
				}
				return a.render(cmd.OutOrStdout(), map[string][]core.BalancePoint{"points": points}, curveRows(points))
			})
		},
	}
}
