package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/ellistech/leadgate/internal/lead_service/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultListLimit = 50

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const createDeliveriesTable = `
CREATE TABLE IF NOT EXISTS lead_deliveries (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL DEFAULT '',
	form_kind   TEXT NOT NULL,
	payload     TEXT NOT NULL,
	ok          BOOLEAN NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS lead_deliveries_created_at_idx ON lead_deliveries (created_at DESC)`

const insertDelivery = `INSERT INTO lead_deliveries (id, session_id, form_kind, payload, ok, duration_ms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`

const listDeliveries = `SELECT id, session_id, form_kind, payload, ok, duration_ms, created_at FROM lead_deliveries WHERE ($1 = '' OR form_kind = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`

type pgDeliveryRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewPgDeliveryRepository creates the Postgres delivery ledger.
func NewPgDeliveryRepository(db Querier, logger *slog.Logger) repository.DeliveryRepository {
	return &pgDeliveryRepository{db: db, logger: logger.With("repository", "lead_deliveries")}
}

// EnsureSchema creates the ledger table if it does not exist yet.
func EnsureSchema(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, createDeliveriesTable); err != nil {
		return fmt.Errorf("failed to create lead_deliveries table: %w", err)
	}
	return nil
}

func (r *pgDeliveryRepository) Record(ctx context.Context, a domain.DeliveryAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, insertDelivery,
		a.ID, a.SessionID, string(a.Form), a.Payload, a.OK, a.Duration.Milliseconds(), a.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert delivery attempt", "attempt_id", a.ID, "error", err)
		return fmt.Errorf("failed to record delivery attempt %s: %w", a.ID, err)
	}
	return nil
}

func (r *pgDeliveryRepository) List(ctx context.Context, opts domain.DeliveryListOptions) ([]domain.DeliveryAttempt, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, listDeliveries, string(opts.Form), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery attempts: %w", err)
	}
	defer rows.Close()

	out := []domain.DeliveryAttempt{}
	for rows.Next() {
		var (
			a          domain.DeliveryAttempt
			form       string
			durationMS int64
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &form, &a.Payload, &a.OK, &durationMS, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery attempt: %w", err)
		}
		a.Form = domain.FormKind(form)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate delivery attempts: %w", err)
	}
	return out, nil
}
