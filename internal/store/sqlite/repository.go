package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"

	_ "modernc.org/sqlite"
)

const (
	insertTransaction = `INSERT INTO transactions (type, title, amount, date, currency, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

	listTransactions = `SELECT id, type, title, amount, date, currency, created_at
FROM transactions
ORDER BY id`
)

type Repository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewRepository opens (or creates) the database file and migrates it.
func NewRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStore),
		now:    time.Now,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create implements store.Writer.
func (r *Repository) Create(ctx context.Context, t core.Transaction) (store.Record, error) {
	if err := t.Validate(); err != nil {
		return store.Record{}, err
	}

	created := r.now().UTC()
	amount := decimal.NewFromFloat(t.Amount)
	res, err := r.db.ExecContext(ctx, insertTransaction,
		string(t.Type), t.Title, amount.String(), t.Date.String(), string(t.Currency),
		created.Format(time.RFC3339Nano))
	if err != nil {
		return store.Record{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return store.Record{}, fmt.Errorf("read inserted id: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldID, id,
		log.FieldType, string(t.Type),
		log.FieldTitle, t.Title,
		log.FieldAmount, amount.String())

	return store.Record{ID: id, Transaction: t, CreatedAt: created}, nil
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
			rec                                 store.Record
			kind, amount, date, cur, createdRaw string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Title, &amount, &date, &cur, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if err := fill(&rec, kind, amount, date, cur); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdRaw); err != nil {
			return nil, fmt.Errorf("transaction %d: created_at: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func fill(rec *store.Record, kind, amount, date, cur string) error {
	k, err := core.ParseKind(kind)
	if err != nil {
		return err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidAmount, amount)
	}
	day, err := core.ParseDate(date)
	if err != nil {
		return err
	}
	rec.Type = k
	rec.Amount = d.InexactFloat64()
	rec.Date = day
	rec.Currency = core.Currency(cur)
	return nil
}
