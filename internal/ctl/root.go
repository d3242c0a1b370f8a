// Package ctl implements ledgerctl, a command-line client that reads a ledger
// store directly and prints views, reports and summaries.
package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ledger/internal/backend"
	"ledger/internal/log"
	"ledger/internal/services"
)

// Configuration keys. Each is settable by flag, by LEDGER_<KEY> in the
// environment (dashes become underscores) or in ledgerctl.yaml.
const (
	keyBackend      = "backend"
	keyDB           = "db"
	keyOwner        = "owner"
	keyFormat       = "format"
	keyAnnualWindow = "annual-window"
	keyTop          = "top"
	keyLogLevel     = "log-level"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v      *viper.Viper
	now    func() time.Time
	logger *log.Logger
}

// NewRootCmd builds the ledgerctl command tree. now is the clock used for
// projection horizons and default report windows.
func NewRootCmd(now func() time.Time) *cobra.Command {
	a := &app{v: viper.New(), now: now}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect a personal ledger from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String(keyBackend, string(backend.SQLiteBackend), "storage backend (sqlite|memory)")
	pf.String(keyDB, "./data/ledger.db", "SQLite database path")
	pf.String(keyOwner, "", "owner reference (UUID)")
	pf.StringP(keyFormat, "f", FormatTable, "output format (table|json|csv|yaml)")
	pf.String(keyAnnualWindow, string(services.AllTime), "annual window (all_time|calendar_year)")
	pf.String(keyLogLevel, "warn", "log level written to stderr")
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		a.ownersCmd(),
		a.viewCmd(),
		a.categoriesCmd(),
		a.bucketsCmd(),
		a.summaryCmd(),
		a.curveCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("LEDGER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	a.v.SetConfigName("ledgerctl")
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home + "/.ledger")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := validFormat(a.v.GetString(keyFormat)); err != nil {
		return err
	}

	lvl := log.ParseLevel(a.v.GetString(keyLogLevel))
	a.logger = log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}),
	})
	return nil
}

// open creates the configured backend. The caller must run the returned cleanup.
func (a *app) open(ctx context.Context) (*backend.BackendResult, error) {
	cfg := backend.Config{
		Type:         backend.BackendType(a.v.GetString(keyBackend)),
		SQLiteDBPath: a.v.GetString(keyDB),
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend %q (valid: %v)", cfg.Type, backend.GetBackendTypes())
	}
	return backend.NewFactory(a.logger).CreateBackend(ctx, cfg)
}

// withBackend opens the backend, runs fn and closes the backend afterwards.
func (a *app) withBackend(ctx context.Context, fn func(*backend.BackendResult) error) (err error) {
	res, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(res)
}

func (a *app) owner() (string, error) {
	owner := strings.TrimSpace(a.v.GetString(keyOwner))
	if owner == "" {
		return "", errors.New("--owner is required (or set LEDGER_OWNER)")
	}
	return owner, nil
}

func (a *app) policy() (services.WindowPolicy, error) {
	return services.ParseWindowPolicy(a.v.GetString(keyAnnualWindow))
}

func (a *app) summarizer() (*services.Summarizer, error) {
	policy, err := a.policy()
	if err != nil {
		return nil, err
	}
	return services.NewSummarizer(policy), nil
}

func (a *app) render(out io.Writer, value, rows any) error {
	return render(out, a.v.GetString(keyFormat), value, rows)
}
