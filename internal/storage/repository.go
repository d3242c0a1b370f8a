package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullableDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullableFrequency(f core.Frequency) sql.NullString {
	if f == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(f), Valid: true}
}

func parseStoredDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}

// Insert implements store.TransactionWriter
func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, owner, kind, category, amount_cents, date, description, is_recurring, frequency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Owner, string(tx.Kind), tx.Category, tx.Amount.Cents,
		nullableDate(tx.Date), tx.Description, tx.IsRecurring, nullableFrequency(tx.Frequency),
		tx.CreatedAt.UTC().Format(timeLayout), tx.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"owner", tx.Owner,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents)
	return nil
}

// Update implements store.TransactionWriter. created_at is never rewritten.
func (r *SQLiteRepository) Update(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET kind = ?, category = ?, amount_cents = ?, date = ?, description = ?,
			is_recurring = ?, frequency = ?, updated_at = ?
		WHERE id = ? AND owner = ?`,
		string(tx.Kind), tx.Category, tx.Amount.Cents, nullableDate(tx.Date), tx.Description,
		tx.IsRecurring, nullableFrequency(tx.Frequency), tx.UpdatedAt.UTC().Format(timeLayout),
		tx.ID, tx.Owner,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOneRow(res, tx.ID)
}

// Delete implements store.TransactionWriter
func (r *SQLiteRepository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// FindByOwner implements store.TransactionReader
func (r *SQLiteRepository) FindByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, kind, category, amount_cents, date, description, is_recurring, frequency, created_at, updated_at
		FROM transactions
		WHERE owner = ?
		ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx                   core.Transaction
			kind                 string
			date, frequency      sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&tx.ID, &tx.Owner, &kind, &tx.Category, &tx.Amount.Cents, &date,
			&tx.Description, &tx.IsRecurring, &frequency, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = core.Kind(kind)
		tx.Frequency = core.Frequency(frequency.String)
		if tx.Date, err = parseStoredDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: stored date %q: %w", tx.ID, date.String, err)
		}
		tx.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		tx.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

type aggregatedMember struct {
	Seq         int64   `json:"seq"`
	ID          string  `json:"id"`
	AmountCents int64   `json:"amount_cents"`
	Description string  `json:"description"`
	Date        *string `json:"date"`
}

// AggregateExpensesByCategory implements store.CategoryAggregator with a
// single GROUP BY query.
func (r *SQLiteRepository) AggregateExpensesByCategory(ctx context.Context, owner string, start, end core.Date) ([]core.CategoryBucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			label,
			SUM(amount_cents) AS total,
			MIN(seq) AS first_seen,
			json_group_array(json_object(
				'seq', seq,
				'id', id,
				'amount_cents', amount_cents,
				'description', description,
				'date', date
			)) AS members
		FROM (
			SELECT
				rowid AS seq,
				id,
				amount_cents,
				description,
				NULLIF(date, '') AS date,
				CASE WHEN TRIM(category, ?) = '' THEN ? ELSE TRIM(category, ?) END AS label
			FROM transactions
			WHERE owner = ?
				AND kind = 'expense'
				AND (date IS NULL OR date = '' OR date BETWEEN ? AND ?)
			ORDER BY rowid
		)
		GROUP BY label
		ORDER BY total DESC, first_seen ASC`,
		core.SpaceChars, core.UncategorizedLabel, core.SpaceChars, owner, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("aggregate expenses: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryBucket
	for rows.Next() {
		var (
			label     string
			total     int64
			firstSeen int64
			raw       string
		)
		if err := rows.Scan(&label, &total, &firstSeen, &raw); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		var members []aggregatedMember
		if err := json.Unmarshal([]byte(raw), &members); err != nil {
			return nil, fmt.Errorf("decode bucket %q members: %w", label, err)
		}
		slices.SortFunc(members, func(a, b aggregatedMember) int {
			return int(a.Seq - b.Seq)
		})

		bucket := core.CategoryBucket{
			Category: label,
			Kind:     core.Expense,
			Total:    core.Money{Cents: total},
			Variant:  core.VariantDetailed,
			Members:  make([]core.BucketMember, 0, len(members)),
		}
		for _, m := range members {
			var d core.Date
			if m.Date != nil {
				if d, err = core.ParseDate(*m.Date); err != nil {
					return nil, fmt.Errorf("transaction %s: stored date %q: %w", m.ID, *m.Date, err)
				}
			}
			bucket.Members = append(bucket.Members, core.BucketMember{
				ID:          m.ID,
				Amount:      core.Money{Cents: m.AmountCents},
				Description: m.Description,
				Date:        d,
			})
		}
		out = append(out, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}
	return out, nil
}

// ListOwners implements store.OwnerLister
func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner FROM transactions GROUP BY owner ORDER BY MIN(rowid)`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, owner)
	}
	return out, rows.Err()
}
