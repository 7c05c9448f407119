package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/manis-auth/manis/internal/common"
	"github.com/manis-auth/manis/internal/dbx"
	"github.com/manis-auth/manis/internal/server/models"
)

// uniqueViolation is the Postgres error code raised on a duplicate batch key.
const uniqueViolation = "23505"

// PostgresRepository is the authoritative event log, backed by the events and
// batches tables.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, events []models.Event) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return appendEvents(ctx, tx, events)
	})
}

func appendEvents(ctx context.Context, tx dbx.DBTX, events []models.Event) error {
	query :=
		`INSERT INTO events (entity_id, entity_type, property, value)
		 VALUES ($1, $2, $3, $4)
		 `

	for _, e := range events {
		if _, err := tx.ExecContext(ctx, query, e.EntityID, e.EntityType, e.Property, e.Value); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Scan(ctx context.Context, entityType, property string) ([]models.Event, error) {
	query :=
		`SELECT sequence, entity_id, entity_type, property, value FROM events
		 WHERE entity_type = $1 AND ($2 = '' OR property = $2)
		 ORDER BY sequence
		 `

	rows, err := r.db.QueryContext(ctx, query, entityType, property)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *PostgresRepository) FindEntityIDs(ctx context.Context, entityType string, properties, values []string) ([]uuid.UUID, error) {
	query :=
		`SELECT DISTINCT entity_id FROM events
		 WHERE entity_type = $1 AND property = ANY($2) AND value = ANY($3)
		 `

	rows, err := r.db.QueryContext(ctx, query, entityType, properties, values)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func (r *PostgresRepository) LoadEvents(ctx context.Context, entityType string, entityIDs []uuid.UUID) ([]models.Event, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	query :=
		`SELECT sequence, entity_id, entity_type, property, value FROM events
		 WHERE entity_type = $1 AND entity_id = ANY($2)
		 ORDER BY sequence
		 `

	ids := make([]string, len(entityIDs))
	for i, id := range entityIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, query, entityType, ids)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *PostgresRepository) FindBatchResponse(ctx context.Context, key uuid.UUID) ([]byte, error) {
	query :=
		`SELECT response FROM batches
		 WHERE key = $1
		 `

	var response []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&response)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return response, nil
}

func (r *PostgresRepository) CommitBatch(ctx context.Context, key uuid.UUID, response []byte, events []models.Event) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`INSERT INTO batches (key, response)
			 VALUES ($1, $2)
			 `

		if _, err := tx.ExecContext(ctx, query, key, response); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return appendEvents(ctx, tx, events)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorBatchExists
		}
		return err
	}

	return nil
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.Sequence, &e.EntityID, &e.EntityType, &e.Property, &e.Value); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return events, nil
}
