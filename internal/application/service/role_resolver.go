package service

import (
	"context"

	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RoleResolver resolves the set of organizational capabilities an actor
// currently holds
type RoleResolver interface {
	// Resolve returns the actor's capability grants with scoping data.
	// Unknown actors resolve to an empty set, never an error: callers must
	// treat an empty set as "not authorized for any privileged transition".
	Resolve(ctx context.Context, actorID string) (entity.RoleSet, error)
}

type roleResolverImpl struct {
	roleRepo port.RoleRepository
	logger   Logger
}

// NewRoleResolver creates a new RoleResolver
func NewRoleResolver(roleRepo port.RoleRepository, logger Logger) RoleResolver {
	return &roleResolverImpl{
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// Resolve returns the capability grants for an actor
func (r *roleResolverImpl) Resolve(ctx context.Context, actorID string) (entity.RoleSet, error) {
	if actorID == "" {
		return entity.RoleSet{}, nil
	}

	assignments, err := r.roleRepo.GetActiveByUser(ctx, actorID)
	if err != nil {
		r.logger.Error("Failed to resolve roles", "actor_id", actorID, "error", err)
		return nil, err
	}

	grants := make(entity.RoleSet, 0, len(assignments))
	for _, a := range assignments {
		grants = append(grants, entity.RoleGrant{
			Role:         a.Role,
			DepartmentID: a.DepartmentID,
		})
	}

	return grants, nil
}
