package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
)

// RequestRepository implements port.RequestRepository over SQLite
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, request_code, requester_id, filed_by, requester_signed, department_id,
	destination, purpose, is_international, total_budget, requires_budget_review,
	status, current_approver_role, current_approver_id,
	first_vp_approved_by, first_vp_approved_at, both_vps_approved, smart_skips,
	travel_start, travel_end, submission_time, approval_time, created_at, updated_at
`

// Create creates a new travel request
func (r *RequestRepository) Create(ctx context.Context, req *entity.TravelRequest) error {
	query := `
		INSERT INTO travel_requests (
			request_code, requester_id, filed_by, requester_signed, department_id,
			destination, purpose, is_international, total_budget, requires_budget_review,
			status, current_approver_role, current_approver_id,
			first_vp_approved_by, first_vp_approved_at, both_vps_approved, smart_skips,
			travel_start, travel_end, submission_time, approval_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.RequestCode,
		req.RequesterID,
		req.FiledBy,
		req.RequesterSigned,
		req.DepartmentID,
		req.Destination,
		req.Purpose,
		req.IsInternational,
		req.TotalBudget,
		req.RequiresBudgetReview,
		req.Status,
		req.CurrentApproverRole,
		req.CurrentApproverID,
		req.FirstVPApprovedBy,
		nullTime(req.FirstVPApprovedAt),
		req.BothVPsApproved,
		marshalSkips(req.SmartSkipsApplied),
		req.TravelStart,
		req.TravelEnd,
		req.SubmissionTime,
		nullTime(req.ApprovalTime),
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a travel request by storage key
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM travel_requests WHERE id = ?`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByCode retrieves a travel request by its public code
func (r *RequestRepository) GetByCode(ctx context.Context, code string) (*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM travel_requests WHERE request_code = ?`
	return r.scanOne(getExecutor(ctx, r.db).QueryRowContext(ctx, query, code))
}

// UpdateCAS persists the request's routing fields guarded by a
// compare-and-swap on the stored status. The first-VP slot is claim-once:
// a competing write from a different VP fails the swap instead of
// overwriting, so two near-simultaneous VP approvals both land.
func (r *RequestRepository) UpdateCAS(ctx context.Context, req *entity.TravelRequest, fromStatus string) (bool, error) {
	query := `
		UPDATE travel_requests SET
			status = ?,
			requester_signed = ?,
			current_approver_role = ?,
			current_approver_id = ?,
			first_vp_approved_by = ?,
			first_vp_approved_at = ?,
			both_vps_approved = ?,
			smart_skips = ?,
			approval_time = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
			AND (first_vp_approved_by = '' OR first_vp_approved_by = ? OR ? = '')
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.Status,
		req.RequesterSigned,
		req.CurrentApproverRole,
		req.CurrentApproverID,
		req.FirstVPApprovedBy,
		nullTime(req.FirstVPApprovedAt),
		req.BothVPsApproved,
		marshalSkips(req.SmartSkipsApplied),
		nullTime(req.ApprovalTime),
		req.ID,
		fromStatus,
		req.FirstVPApprovedBy,
		req.FirstVPApprovedBy,
	)
	if err != nil {
		r.logger.Error("Failed to update request",
			zap.Int64("id", req.ID),
			zap.String("from_status", fromStatus),
			zap.Error(err))
		return false, fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// ListByStatuses retrieves requests in any of the given statuses
func (r *RequestRepository) ListByStatuses(ctx context.Context, statuses []string) ([]*entity.TravelRequest, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]

	query := `SELECT ` + requestColumns + ` FROM travel_requests
		WHERE status IN (` + placeholders + `) ORDER BY submission_time ASC`

	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests by status", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// List retrieves travel requests with pagination
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM travel_requests
		ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *RequestRepository) scanRequest(row rowScanner) (*entity.TravelRequest, error) {
	var req entity.TravelRequest
	var firstVPApprovedAt, approvalTime sql.NullTime
	var skips string

	err := row.Scan(
		&req.ID,
		&req.RequestCode,
		&req.RequesterID,
		&req.FiledBy,
		&req.RequesterSigned,
		&req.DepartmentID,
		&req.Destination,
		&req.Purpose,
		&req.IsInternational,
		&req.TotalBudget,
		&req.RequiresBudgetReview,
		&req.Status,
		&req.CurrentApproverRole,
		&req.CurrentApproverID,
		&req.FirstVPApprovedBy,
		&firstVPApprovedAt,
		&req.BothVPsApproved,
		&skips,
		&req.TravelStart,
		&req.TravelEnd,
		&req.SubmissionTime,
		&approvalTime,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if firstVPApprovedAt.Valid {
		req.FirstVPApprovedAt = &firstVPApprovedAt.Time
	}
	if approvalTime.Valid {
		req.ApprovalTime = &approvalTime.Time
	}
	req.SmartSkipsApplied = unmarshalSkips(skips)

	return &req, nil
}

func (r *RequestRepository) scanOne(row *sql.Row) (*entity.TravelRequest, error) {
	req, err := r.scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan request", zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (r *RequestRepository) scanAll(rows *sql.Rows) ([]*entity.TravelRequest, error) {
	var requests []*entity.TravelRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func marshalSkips(skips []string) string {
	if len(skips) == 0 {
		return "[]"
	}
	data, err := json.Marshal(skips)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalSkips(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var skips []string
	if err := json.Unmarshal([]byte(data), &skips); err != nil {
		return nil
	}
	return skips
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
