package port

import (
	"context"

	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
)

// RequestRepository defines persistence operations for TravelRequest
type RequestRepository interface {
	Create(ctx context.Context, req *entity.TravelRequest) error
	GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error)
	GetByCode(ctx context.Context, code string) (*entity.TravelRequest, error)

	// UpdateCAS persists the request's routing fields (status, current
	// approver, dual-VP bookkeeping, applied skips, approval time) guarded
	// by a compare-and-swap on the stored status. It returns false when the
	// stored status no longer matches fromStatus, which callers surface as
	// a stale-state conflict.
	UpdateCAS(ctx context.Context, req *entity.TravelRequest, fromStatus string) (bool, error)

	ListByStatuses(ctx context.Context, statuses []string) ([]*entity.TravelRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.TravelRequest, error)
}

// HistoryRepository defines the append-only history ledger.
// It never supports update or delete; corrections are new events.
type HistoryRepository interface {
	Append(ctx context.Context, h *entity.TravelHistory) error
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.TravelHistory, error)
	ListByRequest(ctx context.Context, requestID int64) ([]*entity.TravelHistory, error)
}

// RoleRepository defines read access to role assignments and departments,
// plus the administration surface for granting and revoking roles
type RoleRepository interface {
	GetActiveByUser(ctx context.Context, userID string) ([]*entity.RoleAssignment, error)
	GetActiveByRole(ctx context.Context, role entity.Role) ([]*entity.RoleAssignment, error)
	CountActiveByRole(ctx context.Context, role entity.Role) (int, error)
	GetDepartment(ctx context.Context, id string) (*entity.Department, error)
	Grant(ctx context.Context, assignment *entity.RoleAssignment) error
	Revoke(ctx context.Context, id int64) error
}

// NotificationRepository defines the transition-notification outbox
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.TransitionNotification) error
	ListPending(ctx context.Context, limit int) ([]*entity.TransitionNotification, error)
	MarkSent(ctx context.Context, id int64) error
}

// TransactionManager executes a function within a database transaction.
// Repository calls made with the callback context join the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
