package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/quoteflow/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store. pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS review_queue (
	id                TEXT PRIMARY KEY,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	customer_email    TEXT NOT NULL DEFAULT '',
	original_request  TEXT NOT NULL DEFAULT '',
	quote             JSONB,
	reasons           JSONB NOT NULL DEFAULT '[]',
	status            TEXT NOT NULL DEFAULT 'pending',
	reviewed_by       TEXT NOT NULL DEFAULT '',
	reviewed_at       TIMESTAMPTZ,
	notes             TEXT NOT NULL DEFAULT '',
	customer_notified BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_review_queue_status ON review_queue(status);
CREATE INDEX IF NOT EXISTS idx_review_queue_created_at ON review_queue(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, item model.ReviewQueueItem) error {
	quoteJSON, reasonsJSON, err := marshalItem(item)
	if err != nil {
		return err
	}

	var quote any
	if quoteJSON.Valid {
		quote = quoteJSON.String
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO review_queue (id, created_at, customer_email, original_request, quote, reasons, status, customer_notified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.QueueID, item.CreatedAt, item.CustomerEmail, item.OriginalRequest,
		quote, reasonsJSON, string(item.Status), item.CustomerNotified,
	)
	return eris.Wrapf(err, "postgres: insert review %s", item.QueueID)
}

func (s *PostgresStore) Get(ctx context.Context, queueID string) (*model.ReviewQueueItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, created_at, customer_email, original_request, quote, reasons, status, reviewed_by, reviewed_at, notes, customer_notified
		 FROM review_queue WHERE id = $1`,
		queueID,
	)
	item, err := scanReviewPG(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get review %s", queueID)
	}
	return item, nil
}

func (s *PostgresStore) List(ctx context.Context, status model.ReviewStatus) ([]model.ReviewQueueItem, error) {
	query := `SELECT id, created_at, customer_email, original_request, quote, reasons, status, reviewed_by, reviewed_at, notes, customer_notified
		 FROM review_queue`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reviews")
	}
	defer rows.Close()

	var items []model.ReviewQueueItem
	for rows.Next() {
		item, err := scanReviewPG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan review")
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list reviews iterate")
}

func (s *PostgresStore) Resolve(ctx context.Context, queueID string, status model.ReviewStatus, reviewer, notes string, reviewedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE review_queue SET status = $1, reviewed_by = $2, reviewed_at = $3, notes = $4
		 WHERE id = $5 AND status = $6`,
		string(status), reviewer, reviewedAt, notes, queueID, string(model.ReviewPending),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: resolve review %s", queueID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) SetCustomerNotified(ctx context.Context, queueID string, notified bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE review_queue SET customer_notified = $1 WHERE id = $2`,
		notified, queueID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set customer notified %s", queueID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReviewPG(row pgx.Row) (*model.ReviewQueueItem, error) {
	var (
		item        model.ReviewQueueItem
		quoteJSON   []byte
		reasonsJSON []byte
		status      string
		reviewedAt  *time.Time
	)

	err := row.Scan(&item.QueueID, &item.CreatedAt, &item.CustomerEmail, &item.OriginalRequest,
		&quoteJSON, &reasonsJSON, &status, &item.ReviewedBy, &reviewedAt, &item.Notes, &item.CustomerNotified)
	if err != nil {
		return nil, err
	}

	item.Status = model.ReviewStatus(status)
	item.ReviewedAt = reviewedAt
	if len(quoteJSON) > 0 {
		item.GeneratedQuote = &model.ValidatedQuote{}
		if err := json.Unmarshal(quoteJSON, item.GeneratedQuote); err != nil {
			return nil, eris.Wrap(err, "review: unmarshal quote")
		}
	}
	if len(reasonsJSON) > 0 {
		if err := json.Unmarshal(reasonsJSON, &item.ReviewReasons); err != nil {
			return nil, eris.Wrap(err, "review: unmarshal reasons")
		}
	}
	return &item, nil
}
