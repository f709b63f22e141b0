package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/quoteflow/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS review_queue (
	id                TEXT PRIMARY KEY,
	created_at        DATETIME NOT NULL,
	customer_email    TEXT NOT NULL DEFAULT '',
	original_request  TEXT NOT NULL DEFAULT '',
	quote             TEXT,
	reasons           TEXT NOT NULL DEFAULT '[]',
	status            TEXT NOT NULL DEFAULT 'pending',
	reviewed_by       TEXT NOT NULL DEFAULT '',
	reviewed_at       DATETIME,
	notes             TEXT NOT NULL DEFAULT '',
	customer_notified INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_review_queue_status ON review_queue(status);
CREATE INDEX IF NOT EXISTS idx_review_queue_created_at ON review_queue(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, item model.ReviewQueueItem) error {
	quoteJSON, reasonsJSON, err := marshalItem(item)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_queue (id, created_at, customer_email, original_request, quote, reasons, status, customer_notified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.QueueID, item.CreatedAt, item.CustomerEmail, item.OriginalRequest,
		quoteJSON, reasonsJSON, string(item.Status), boolToInt(item.CustomerNotified),
	)
	return eris.Wrapf(err, "sqlite: insert review %s", item.QueueID)
}

func (s *SQLiteStore) Get(ctx context.Context, queueID string) (*model.ReviewQueueItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, customer_email, original_request, quote, reasons, status, reviewed_by, reviewed_at, notes, customer_notified
		 FROM review_queue WHERE id = ?`,
		queueID,
	)
	item, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get review %s", queueID)
	}
	return item, nil
}

func (s *SQLiteStore) List(ctx context.Context, status model.ReviewStatus) ([]model.ReviewQueueItem, error) {
	query := `SELECT id, created_at, customer_email, original_request, quote, reasons, status, reviewed_by, reviewed_at, notes, customer_notified
		 FROM review_queue`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reviews")
	}
	defer rows.Close()

	var items []model.ReviewQueueItem
	for rows.Next() {
		item, err := scanReview(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review")
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list reviews iterate")
}

// Resolve is a single conditional UPDATE keyed on pending status, so two
// concurrent resolutions of the same item cannot both succeed.
func (s *SQLiteStore) Resolve(ctx context.Context, queueID string, status model.ReviewStatus, reviewer, notes string, reviewedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_queue SET status = ?, reviewed_by = ?, reviewed_at = ?, notes = ?
		 WHERE id = ? AND status = ?`,
		string(status), reviewer, reviewedAt, notes, queueID, string(model.ReviewPending),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: resolve review %s", queueID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) SetCustomerNotified(ctx context.Context, queueID string, notified bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_queue SET customer_notified = ? WHERE id = ?`,
		boolToInt(notified), queueID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set customer notified %s", queueID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// helpers

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalItem(item model.ReviewQueueItem) (quoteJSON sql.NullString, reasonsJSON string, err error) {
	if item.GeneratedQuote != nil {
		data, merr := json.Marshal(item.GeneratedQuote)
		if merr != nil {
			return quoteJSON, "", eris.Wrap(merr, "review: marshal quote")
		}
		quoteJSON = sql.NullString{String: string(data), Valid: true}
	}

	reasons := item.ReviewReasons
	if reasons == nil {
		reasons = []string{}
	}
	data, merr := json.Marshal(reasons)
	if merr != nil {
		return quoteJSON, "", eris.Wrap(merr, "review: marshal reasons")
	}
	return quoteJSON, string(data), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReview(row scannable) (*model.ReviewQueueItem, error) {
	var (
		item        model.ReviewQueueItem
		quoteJSON   sql.NullString
		reasonsJSON string
		status      string
		reviewedAt  sql.NullTime
		notified    int
	)

	err := row.Scan(&item.QueueID, &item.CreatedAt, &item.CustomerEmail, &item.OriginalRequest,
		&quoteJSON, &reasonsJSON, &status, &item.ReviewedBy, &reviewedAt, &item.Notes, &notified)
	if err != nil {
		return nil, err
	}

	item.Status = model.ReviewStatus(status)
	item.CustomerNotified = notified != 0
	if reviewedAt.Valid {
		t := reviewedAt.Time
		item.ReviewedAt = &t
	}
	if quoteJSON.Valid {
		item.GeneratedQuote = &model.ValidatedQuote{}
		if err := json.Unmarshal([]byte(quoteJSON.String), item.GeneratedQuote); err != nil {
			return nil, eris.Wrap(err, "review: unmarshal quote")
		}
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &item.ReviewReasons); err != nil {
		return nil, eris.Wrap(err, "review: unmarshal reasons")
	}
	return &item, nil
}
