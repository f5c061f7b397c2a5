package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
)

// HistoryRepository implements the append-only history ledger over SQLite.
// The table carries no UPDATE or DELETE path; corrections are new events.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one transition event. The idempotency key column is UNIQUE
// (NULL when absent), so a retried submission of the same transition cannot
// produce a duplicate record.
func (r *HistoryRepository) Append(ctx context.Context, h *entity.TravelHistory) error {
	query := `
		INSERT INTO request_history (
			request_id, actor_id, actor_role, action,
			previous_status, new_status, comment, skip_rule, idempotency_key, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		h.RequestID,
		h.ActorID,
		h.ActorRole,
		h.Action,
		h.PreviousStatus,
		h.NewStatus,
		h.Comment,
		h.SkipRule,
		nullString(h.IdempotencyKey),
		h.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append history event", zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// GetByIdempotencyKey retrieves the event recorded for a key, or nil
func (r *HistoryRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.TravelHistory, error) {
	query := `
		SELECT id, request_id, actor_id, actor_role, action,
			previous_status, new_status, comment, skip_rule, idempotency_key, timestamp
		FROM request_history
		WHERE idempotency_key = ?
	`

	h, err := scanHistory(getExecutor(ctx, r.db).QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get history by idempotency key", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return h, nil
}

// ListByRequest retrieves the ordered timeline for a request
func (r *HistoryRepository) ListByRequest(ctx context.Context, requestID int64) ([]*entity.TravelHistory, error) {
	query := `
		SELECT id, request_id, actor_id, actor_role, action,
			previous_status, new_status, comment, skip_rule, idempotency_key, timestamp
		FROM request_history
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*entity.TravelHistory
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanHistory(row rowScanner) (*entity.TravelHistory, error) {
	var h entity.TravelHistory
	var key sql.NullString

	err := row.Scan(
		&h.ID,
		&h.RequestID,
		&h.ActorID,
		&h.ActorRole,
		&h.Action,
		&h.PreviousStatus,
		&h.NewStatus,
		&h.Comment,
		&h.SkipRule,
		&key,
		&h.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if key.Valid {
		h.IdempotencyKey = key.String
	}

	return &h, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
