package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
)

// RoleRepository implements port.RoleRepository over SQLite
type RoleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sql.DB, logger *zap.Logger) port.RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveByUser retrieves the active role assignments of a user
func (r *RoleRepository) GetActiveByUser(ctx context.Context, userID string) ([]*entity.RoleAssignment, error) {
	query := `
		SELECT id, user_id, role, department_id, active, assigned_at, revoked_at
		FROM role_assignments
		WHERE user_id = ? AND active = 1
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to get roles by user", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get role assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// GetActiveByRole retrieves all active assignments of a role
func (r *RoleRepository) GetActiveByRole(ctx context.Context, role entity.Role) ([]*entity.RoleAssignment, error) {
	query := `
		SELECT id, user_id, role, department_id, active, assigned_at, revoked_at
		FROM role_assignments
		WHERE role = ? AND active = 1
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, role.String())
	if err != nil {
		r.logger.Error("Failed to get assignments by role", zap.String("role", role.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get role assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// CountActiveByRole counts the active seats of a role
func (r *RoleRepository) CountActiveByRole(ctx context.Context, role entity.Role) (int, error) {
	query := `SELECT COUNT(*) FROM role_assignments WHERE role = ? AND active = 1`

	var count int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, role.String()).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count role seats", zap.String("role", role.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to count role assignments: %w", err)
	}

	return count, nil
}

// GetDepartment retrieves a department by ID
func (r *RoleRepository) GetDepartment(ctx context.Context, id string) (*entity.Department, error) {
	query := `SELECT id, name, parent_id FROM departments WHERE id = ?`

	var dept entity.Department
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.ParentID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get department", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get department: %w", err)
	}

	return &dept, nil
}

// Grant creates a new active role assignment
func (r *RoleRepository) Grant(ctx context.Context, assignment *entity.RoleAssignment) error {
	query := `
		INSERT INTO role_assignments (user_id, role, department_id, active, assigned_at)
		VALUES (?, ?, ?, 1, ?)
	`

	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now()
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		assignment.UserID,
		assignment.Role.String(),
		assignment.DepartmentID,
		assignment.AssignedAt,
	)
	if err != nil {
		r.logger.Error("Failed to grant role",
			zap.String("user_id", assignment.UserID),
			zap.String("role", assignment.Role.String()),
			zap.Error(err))
		return fmt.Errorf("failed to grant role: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	assignment.ID = id
	assignment.Active = true
	return nil
}

// Revoke deactivates a role assignment, keeping it for the record
func (r *RoleRepository) Revoke(ctx context.Context, id int64) error {
	query := `UPDATE role_assignments SET active = 0, revoked_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to revoke role", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	return nil
}

func scanAssignments(rows *sql.Rows) ([]*entity.RoleAssignment, error) {
	var assignments []*entity.RoleAssignment
	for rows.Next() {
		var a entity.RoleAssignment
		var role string
		var revokedAt sql.NullTime

		err := rows.Scan(&a.ID, &a.UserID, &role, &a.DepartmentID, &a.Active, &a.AssignedAt, &revokedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role assignment: %w", err)
		}

		a.Role = entity.Role(role)
		if revokedAt.Valid {
			a.RevokedAt = &revokedAt.Time
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

// Verify interface compliance
var _ port.RoleRepository = (*RoleRepository)(nil)
