// Package sheets keeps transactions as rows of a Google Sheets tab:
// ID | Type | Title | Amount | Date | Currency | CreatedAt.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

// Header is written to an empty sheet before the first record.
var Header = []any{"ID", "Type", "Title", "Amount", "Date", "Currency", "CreatedAt"}

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
	now           func() time.Time

	// Appends are serialised so ids stay unique within this process.
	mu sync.Mutex
}

var _ store.Backend = (*Client)(nil)

// New creates a client authenticated with a service account. When opts are
// given they replace the credential options entirely.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Transactions"
	}

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
		logger:        logger.WithComponent(log.ComponentStore),
		now:           time.Now,
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) rng(cols string) string {
	return fmt.Sprintf("%s!%s", c.sheet, cols)
}

// Create appends one row. The id is one more than the largest id present.
func (c *Client) Create(ctx context.Context, t core.Transaction) (store.Record, error) {
	if err := t.Validate(); err != nil {
		return store.Record{}, fmt.Errorf("validation failed: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:A")).Context(ctx).Do()
	if err != nil {
		return store.Record{}, fmt.Errorf("read ids from %s: %w", c.sheet, err)
	}
	id := nextID(resp.Values)

	rows := [][]any{}
	if len(resp.Values) == 0 {
		rows = append(rows, Header)
	}
	rec := store.Record{ID: id, Transaction: t, CreatedAt: c.now().UTC()}
	rows = append(rows, toRow(rec))

	vr := &gsheet.ValueRange{Values: rows}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng("A:G"), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return store.Record{}, fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}

	c.logger.InfoContext(ctx, "Transaction appended to sheet",
		log.FieldID, id,
		log.FieldType, string(t.Type),
		log.FieldTitle, t.Title)
	return rec, nil
}

// List reads every row. Rows that cannot be parsed are skipped and logged.
func (c *Client) List(ctx context.Context) ([]store.Record, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:G")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.sheet, err)
	}

	out := []store.Record{}
	for i, row := range resp.Values {
		cols := toStrings(row)
		if i == 0 && isHeader(cols) {
			continue
		}
		if blank(cols) {
			continue
		}
		rec, err := parseRow(cols)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed sheet row", "row", i+1, log.FieldError, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRow(r store.Record) []any {
	return []any{
		r.ID,
		string(r.Type),
		r.Title,
		decimal.NewFromFloat(r.Amount).String(),
		r.Date.String(),
		string(r.Currency),
		r.CreatedAt.Format(time.RFC3339),
	}
}
