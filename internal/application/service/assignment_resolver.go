package service

import (
	"context"

	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	"github.com/httplouis/TraveLink-sub009/internal/domain/workflow"
)

// Approver identifies who is expected to act on a request. An empty
// IndividualID means any holder of the role is eligible and identity is
// checked at actor-resolution time instead.
type Approver struct {
	Role         entity.Role `json:"role"`
	IndividualID string      `json:"individual_id,omitempty"`
}

// AssignmentResolver resolves which individual (if any) is currently
// responsible for a request's pending stage. All inbox views share this
// single query path.
type AssignmentResolver interface {
	ResolveCurrentApprover(ctx context.Context, req *entity.TravelRequest) (Approver, error)
}

type assignmentResolverImpl struct {
	roleRepo port.RoleRepository
	logger   Logger
}

// NewAssignmentResolver creates a new AssignmentResolver
func NewAssignmentResolver(roleRepo port.RoleRepository, logger Logger) AssignmentResolver {
	return &assignmentResolverImpl{
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// ResolveCurrentApprover resolves the expected approver for the request's
// current state
func (r *assignmentResolverImpl) ResolveCurrentApprover(ctx context.Context, req *entity.TravelRequest) (Approver, error) {
	state := workflow.State(req.Status)

	if state == workflow.StatePendingRequesterSig {
		// Only the requester themself may sign
		return Approver{IndividualID: req.RequesterID}, nil
	}

	role, ok := workflow.RequiredRole(state)
	if !ok {
		return Approver{}, nil
	}

	switch state {
	case workflow.StatePendingHead:
		individual, err := r.headOf(ctx, req.DepartmentID)
		if err != nil {
			return Approver{}, err
		}
		return Approver{Role: role, IndividualID: individual}, nil

	case workflow.StatePendingParentHead:
		dept, err := r.roleRepo.GetDepartment(ctx, req.DepartmentID)
		if err != nil {
			return Approver{}, err
		}
		if dept == nil || dept.ParentID == "" {
			r.logger.Error("No parent department for escalation", "department_id", req.DepartmentID)
			return Approver{Role: role}, nil
		}
		individual, err := r.headOf(ctx, dept.ParentID)
		if err != nil {
			return Approver{}, err
		}
		return Approver{Role: role, IndividualID: individual}, nil
	}

	// A specific person already engaged with the case stays pinned;
	// otherwise any holder of the role is eligible
	if req.CurrentApproverID != "" && req.CurrentApproverRole == role.String() {
		return Approver{Role: role, IndividualID: req.CurrentApproverID}, nil
	}

	return Approver{Role: role}, nil
}

// headOf returns the user currently holding the head role for a department,
// or empty when the seat is vacant
func (r *assignmentResolverImpl) headOf(ctx context.Context, departmentID string) (string, error) {
	heads, err := r.roleRepo.GetActiveByRole(ctx, entity.RoleHead)
	if err != nil {
		return "", err
	}
	for _, h := range heads {
		if h.DepartmentID == departmentID {
			return h.UserID, nil
		}
	}
	return "", nil
}
