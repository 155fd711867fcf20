// Package postgres stores transactions in PostgreSQL through pgx's
// database/sql driver.
//
// Amounts are NUMERIC(14,2), so the store rounds them to cents on the way
// in. Callers that need the stored value must re-read the list.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	insertTransaction = `INSERT INTO transactions (type, title, amount, date, currency)
VALUES ($1, $2, $3::numeric, $4::date, $5)
RETURNING id, amount::text, created_at`

	listTransactions = `SELECT id, type, title, amount::text, date::text, currency, created_at
FROM transactions
ORDER BY id`
)

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

// NormalizeURL rewrites postgresql:// to postgres:// and defaults sslmode to
// disable, which is what local containers expect.
func NormalizeURL(databaseURL string) string {
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		databaseURL = "postgres://" + rest
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL += separator + "sslmode=disable"
	}
	return databaseURL
}

// NewRepository connects, pings and migrates.
func NewRepository(ctx context.Context, databaseURL string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.Discard()
	}

	config, err := pgx.ParseConfig(NormalizeURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	db := stdlib.OpenDB(*config)
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, logger: logger.WithComponent(log.ComponentStore)}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := mpgx.WithInstance(db, &mpgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx migrate driver: %w", err)
	}
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m.Close would also close db, which the repository keeps using.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Create implements store.Writer. The returned record carries the amount as
// stored, rounded to cents.
func (r *Repository) Create(ctx context.Context, t core.Transaction) (store.Record, error) {
	if err := t.Validate(); err != nil {
		return store.Record{}, err
	}

	rec := store.Record{Transaction: t}
	var stored string
	err := r.db.QueryRowContext(ctx, insertTransaction,
		string(t.Type), t.Title, decimal.NewFromFloat(t.Amount).String(), t.Date.String(), string(t.Currency),
	).Scan(&rec.ID, &stored, &rec.CreatedAt)
	if err != nil {
		return store.Record{}, fmt.Errorf("insert transaction: %w", err)
	}
	amount, err := decimal.NewFromString(stored)
	if err != nil {
		return store.Record{}, fmt.Errorf("parse stored amount %q: %w", stored, err)
	}
	rec.Amount = amount.InexactFloat64()

	r.logger.InfoContext(ctx, "Transaction saved to PostgreSQL",
		log.FieldID, rec.ID,
		log.FieldType, string(t.Type),
		log.FieldTitle, t.Title,
		log.FieldAmount, stored)
	return rec, nil
}

// List implements store.Lister.
func (r *Repository) List(ctx context.Context) ([]store.Record, error) {
	rows, err := r.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []store.Record{}
	for rows.Next() {
		var (
			rec                     store.Record
			kind, amount, date, cur string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Title, &amount, &date, &cur, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if rec.Type, err = core.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", rec.ID, err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w: %q", rec.ID, core.ErrInvalidAmount, amount)
		}
		rec.Amount = d.InexactFloat64()
		if rec.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", rec.ID, err)
		}
		rec.Currency = core.Currency(strings.TrimSpace(cur))
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
