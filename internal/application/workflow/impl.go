package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/httplouis/TraveLink-sub009/internal/application/dispatcher"
	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	"github.com/httplouis/TraveLink-sub009/internal/application/service"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	"github.com/httplouis/TraveLink-sub009/internal/domain/event"
	domainwf "github.com/httplouis/TraveLink-sub009/internal/domain/workflow"
)

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	requestRepo        port.RequestRepository
	historyRepo        port.HistoryRepository
	roleRepo           port.RoleRepository
	txManager          port.TransactionManager
	roleResolver       service.RoleResolver
	assignmentResolver service.AssignmentResolver
	dispatcher         dispatcher.Dispatcher
	policy             PolicyConfig
	logger             Logger
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting transition events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithPolicy overrides the default organizational policy
func WithPolicy(p PolicyConfig) EngineOption {
	return func(e *engineImpl) {
		e.policy = p
	}
}

// DefaultPolicy returns the default organizational policy
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		PresidentBudgetThreshold: 50000,
		EscalateHeadToParent:     false,
		CompletionActorID:        "system:scheduler",
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	requestRepo port.RequestRepository,
	historyRepo port.HistoryRepository,
	roleRepo port.RoleRepository,
	txManager port.TransactionManager,
	roleResolver service.RoleResolver,
	assignmentResolver service.AssignmentResolver,
	logger Logger,
	opts ...EngineOption,
) WorkflowEngine {
	e := &engineImpl{
		requestRepo:        requestRepo,
		historyRepo:        historyRepo,
		roleRepo:           roleRepo,
		txManager:          txManager,
		roleResolver:       roleResolver,
		assignmentResolver: assignmentResolver,
		policy:             DefaultPolicy(),
		logger:             logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Submit creates a request and routes it to its initial pending state
func (e *engineImpl) Submit(ctx context.Context, req *entity.TravelRequest) (*ActionResult, error) {
	if req.RequesterID == "" {
		return nil, fmt.Errorf("%w: requester id is required", domainwf.ErrUnknownActor)
	}
	if req.DepartmentID == "" {
		return nil, fmt.Errorf("department id is required")
	}

	if req.RequestCode == "" {
		req.RequestCode = uuid.NewString()
	}
	if req.FiledBy == "" {
		req.FiledBy = req.RequesterID
	}
	if !req.FiledByRepresentative() {
		req.RequesterSigned = true
	}

	now := time.Now()
	req.Status = domainwf.StateDraft.String()
	req.SubmissionTime = now

	facts, err := e.buildFacts(ctx, req)
	if err != nil {
		return nil, err
	}

	machine := domainwf.BuildTravelStateMachine(domainwf.StateDraft)
	if err := machine.Fire(facts, domainwf.ActionSubmit); err != nil {
		return nil, err
	}

	events := []*entity.TravelHistory{{
		ActorID:        req.FiledBy,
		ActorRole:      "requester",
		Action:         domainwf.ActionSubmit.String(),
		PreviousStatus: domainwf.StateDraft.String(),
		NewStatus:      machine.State().String(),
		Timestamp:      now,
	}}

	events = e.applySkips(machine, facts, req, events)
	e.finalizeState(ctx, req, machine.State())

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		for _, evt := range events {
			evt.RequestID = req.ID
			if err := e.historyRepo.Append(txCtx, evt); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to submit request", "request_code", req.RequestCode, "error", err)
		return nil, err
	}

	e.emitTransition(ctx, event.TypeRequestSubmitted, req, domainwf.ActionSubmit.String(), domainwf.StateDraft.String())

	e.logger.Info("Request submitted",
		"request_code", req.RequestCode,
		"status", req.Status,
		"skips", len(req.SmartSkipsApplied),
	)

	return &ActionResult{Request: req, Events: events}, nil
}

// Act validates and performs a single human transition
func (e *engineImpl) Act(ctx context.Context, in ActionRequest) (*ActionResult, error) {
	switch in.Action {
	case domainwf.ActionApprove, domainwf.ActionReject, domainwf.ActionReturn, domainwf.ActionCancel:
	default:
		return nil, fmt.Errorf("%w: action %s is not a caller action", domainwf.ErrInvalidState, in.Action)
	}
	if in.ActorID == "" {
		return nil, domainwf.ErrUnknownActor
	}
	if in.Action == domainwf.ActionReject && in.Comment == "" {
		return nil, domainwf.ErrMissingComment
	}

	// Safe retry: a replayed call with a key we already committed returns
	// the recorded outcome instead of double-advancing
	if in.IdempotencyKey != "" {
		if replay, err := e.replayByKey(ctx, in.IdempotencyKey); err != nil || replay != nil {
			return replay, err
		}
	}

	req, err := e.requestRepo.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domainwf.ErrUnknownRequest
	}

	prevState := domainwf.State(req.Status)
	if prevState.IsTerminal() {
		return nil, fmt.Errorf("%w: request is %s", domainwf.ErrInvalidState, prevState)
	}

	roles, err := e.roleResolver.Resolve(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	actorRole, err := e.authorize(ctx, req, prevState, in.ActorID, in.Action, roles)
	if err != nil {
		return nil, err
	}

	// Dual-VP gate: with two VP seats the first approval records history
	// without advancing state
	if prevState == domainwf.StatePendingVP && in.Action == domainwf.ActionApprove {
		handled, result, err := e.recordVPApproval(ctx, req, in)
		if err != nil || handled {
			return result, err
		}
	}

	facts, err := e.buildFacts(ctx, req)
	if err != nil {
		return nil, err
	}

	machine := domainwf.BuildTravelStateMachine(prevState)
	if !machine.CanFire(facts, in.Action) {
		return nil, fmt.Errorf("%w: %s from %s", domainwf.ErrInvalidState, in.Action, prevState)
	}
	if err := machine.Fire(facts, in.Action); err != nil {
		return nil, err
	}

	now := time.Now()
	key := in.IdempotencyKey
	if key == "" {
		key = deriveIdempotencyKey(req.ID, prevState.String(), machine.State().String(), in.ActorID, now)
	}

	events := []*entity.TravelHistory{{
		RequestID:      req.ID,
		ActorID:        in.ActorID,
		ActorRole:      actorRole,
		Action:         in.Action.String(),
		PreviousStatus: prevState.String(),
		NewStatus:      machine.State().String(),
		Comment:        in.Comment,
		IdempotencyKey: key,
		Timestamp:      now,
	}}

	if in.Action == domainwf.ActionApprove {
		if prevState == domainwf.StatePendingRequesterSig {
			req.RequesterSigned = true
		}
		events = e.applySkips(machine, facts, req, events)
	}
	if in.Action == domainwf.ActionReturn {
		// Returning for revision clears approvals from this stage onward;
		// completed stages stay in history
		req.FirstVPApprovedBy = ""
		req.FirstVPApprovedAt = nil
		req.BothVPsApproved = false
	}

	e.finalizeState(ctx, req, machine.State())

	err = e.writeTransition(ctx, req, prevState.String(), events)
	if err != nil {
		return nil, err
	}

	e.emitTransition(ctx, eventTypeFor(machine.State()), req, in.Action.String(), prevState.String())

	e.logger.Info("Transition applied",
		"request_code", req.RequestCode,
		"action", in.Action.String(),
		"actor_id", in.ActorID,
		"from", prevState.String(),
		"to", req.Status,
	)

	return &ActionResult{Request: req, Events: events}, nil
}

// Complete performs the approved -> completed transition for the
// scheduled-completion collaborator, without human approver validation
func (e *engineImpl) Complete(ctx context.Context, requestID int64, actorID string) (*ActionResult, error) {
	if actorID != e.policy.CompletionActorID {
		return nil, fmt.Errorf("%w: completion is reserved for the scheduler", domainwf.ErrNotAuthorized)
	}

	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domainwf.ErrUnknownRequest
	}

	prevState := domainwf.State(req.Status)
	if prevState != domainwf.StateApproved {
		return nil, fmt.Errorf("%w: request is %s, not approved", domainwf.ErrInvalidState, prevState)
	}
	if time.Now().Before(req.TravelEnd) {
		return nil, fmt.Errorf("%w: travel window has not closed", domainwf.ErrInvalidState)
	}

	machine := domainwf.BuildTravelStateMachine(prevState)
	if err := machine.Fire(domainwf.Facts{}, domainwf.ActionComplete); err != nil {
		return nil, err
	}

	now := time.Now()
	events := []*entity.TravelHistory{{
		RequestID:      req.ID,
		ActorID:        actorID,
		ActorRole:      "scheduler",
		Action:         domainwf.ActionComplete.String(),
		PreviousStatus: prevState.String(),
		NewStatus:      machine.State().String(),
		IdempotencyKey: deriveIdempotencyKey(req.ID, prevState.String(), machine.State().String(), actorID, now),
		Timestamp:      now,
	}}

	e.finalizeState(ctx, req, machine.State())

	if err := e.writeTransition(ctx, req, prevState.String(), events); err != nil {
		return nil, err
	}

	e.emitTransition(ctx, event.TypeRequestCompleted, req, domainwf.ActionComplete.String(), prevState.String())

	return &ActionResult{Request: req, Events: events}, nil
}

// GetRequest returns a request by its public code
func (e *engineImpl) GetRequest(ctx context.Context, code string) (*entity.TravelRequest, error) {
	req, err := e.requestRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domainwf.ErrUnknownRequest
	}
	return req, nil
}

// GetHistory returns the ordered audit timeline of a request
func (e *engineImpl) GetHistory(ctx context.Context, requestID int64) ([]*entity.TravelHistory, error) {
	return e.historyRepo.ListByRequest(ctx, requestID)
}

// GetPendingFor returns the requests currently awaiting the actor's action,
// computed from status, role set and current-approver pinning
func (e *engineImpl) GetPendingFor(ctx context.Context, actorID string) ([]*entity.TravelRequest, error) {
	if actorID == "" {
		return nil, domainwf.ErrUnknownActor
	}

	roles, err := e.roleResolver.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	statuses := []string{domainwf.StatePendingRequesterSig.String()}
	for state, role := range inboxStates {
		if roles.Has(role) {
			statuses = append(statuses, state.String())
		}
	}

	candidates, err := e.requestRepo.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, err
	}

	pending := make([]*entity.TravelRequest, 0, len(candidates))
	for _, req := range candidates {
		eligible, err := e.eligibleFor(ctx, req, actorID, roles)
		if err != nil {
			return nil, err
		}
		if eligible {
			pending = append(pending, req)
		}
	}

	return pending, nil
}

// inboxStates maps each pending state to the role whose inbox it feeds
var inboxStates = map[domainwf.State]entity.Role{
	domainwf.StatePendingHead:        entity.RoleHead,
	domainwf.StatePendingParentHead:  entity.RoleHead,
	domainwf.StatePendingAdmin:       entity.RoleAdmin,
	domainwf.StatePendingComptroller: entity.RoleComptroller,
	domainwf.StatePendingHR:          entity.RoleHR,
	domainwf.StatePendingVP:          entity.RoleVP,
	domainwf.StatePendingPresident:   entity.RolePresident,
	domainwf.StatePendingExec:        entity.RoleExecutive,
}

// eligibleFor applies per-request scoping on top of the status filter
func (e *engineImpl) eligibleFor(ctx context.Context, req *entity.TravelRequest, actorID string, roles entity.RoleSet) (bool, error) {
	state := domainwf.State(req.Status)

	if req.CurrentApproverID != "" && req.CurrentApproverID != actorID {
		return false, nil
	}

	switch state {
	case domainwf.StatePendingRequesterSig:
		return req.RequesterID == actorID, nil

	case domainwf.StatePendingHead:
		return roles.HasScoped(entity.RoleHead, req.DepartmentID), nil

	case domainwf.StatePendingParentHead:
		dept, err := e.roleRepo.GetDepartment(ctx, req.DepartmentID)
		if err != nil {
			return false, err
		}
		if dept == nil || dept.ParentID == "" {
			return false, nil
		}
		return roles.HasScoped(entity.RoleHead, dept.ParentID), nil

	case domainwf.StatePendingVP:
		// A VP that already recorded the first approval is done
		return req.FirstVPApprovedBy != actorID, nil
	}

	return true, nil
}

// buildFacts snapshots the request attributes the rule table evaluates.
// Facts are computed once per transition attempt, at stage entry.
func (e *engineImpl) buildFacts(ctx context.Context, req *entity.TravelRequest) (domainwf.Facts, error) {
	requesterRoles, err := e.roleResolver.Resolve(ctx, req.RequesterID)
	if err != nil {
		return domainwf.Facts{}, err
	}

	return domainwf.Facts{
		NeedsRequesterSignature:  req.FiledByRepresentative() && !req.RequesterSigned,
		RequiresBudgetReview:     req.RequiresBudgetReview,
		TotalBudget:              req.TotalBudget,
		IsInternational:          req.IsInternational,
		RequesterIsHead:          requesterRoles.HasScoped(entity.RoleHead, req.DepartmentID),
		RequesterIsVP:            requesterRoles.Has(entity.RoleVP),
		RequesterIsPresident:     requesterRoles.Has(entity.RolePresident),
		RequesterIsExecutive:     requesterRoles.Has(entity.RoleExecutive),
		EscalateHeadToParent:     e.policy.EscalateHeadToParent,
		PresidentBudgetThreshold: e.policy.PresidentBudgetThreshold,
	}, nil
}

// authorize verifies the actor may perform the action from the current
// state and returns the role to record on the history event
func (e *engineImpl) authorize(ctx context.Context, req *entity.TravelRequest, state domainwf.State, actorID string, action domainwf.Action, roles entity.RoleSet) (string, error) {
	// Only the requester (or the representative who filed) may cancel
	if action == domainwf.ActionCancel {
		if actorID != req.RequesterID && actorID != req.FiledBy {
			return "", fmt.Errorf("%w: only the requester may cancel", domainwf.ErrNotAuthorized)
		}
		return "requester", nil
	}

	// The signature stage is an identity check, not a role check
	if state == domainwf.StatePendingRequesterSig {
		if actorID != req.RequesterID {
			return "", fmt.Errorf("%w: only the requester may sign", domainwf.ErrNotAuthorized)
		}
		return "requester", nil
	}

	role, ok := domainwf.RequiredRole(state)
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", domainwf.ErrInvalidState, action, state)
	}

	switch state {
	case domainwf.StatePendingHead:
		if !roles.HasScoped(entity.RoleHead, req.DepartmentID) {
			return "", fmt.Errorf("%w: head of department %s required", domainwf.ErrNotAuthorized, req.DepartmentID)
		}
	case domainwf.StatePendingParentHead:
		dept, err := e.roleRepo.GetDepartment(ctx, req.DepartmentID)
		if err != nil {
			return "", err
		}
		if dept == nil || dept.ParentID == "" || !roles.HasScoped(entity.RoleHead, dept.ParentID) {
			return "", fmt.Errorf("%w: parent unit head required", domainwf.ErrNotAuthorized)
		}
	default:
		if !roles.Has(role) {
			return "", fmt.Errorf("%w: role %s required", domainwf.ErrNotAuthorized, role)
		}
	}

	if req.CurrentApproverID != "" && req.CurrentApproverID != actorID {
		return "", fmt.Errorf("%w: request is assigned to a specific approver", domainwf.ErrNotAuthorized)
	}

	return role.String(), nil
}

// recordVPApproval implements the dual-VP rule. With two or more VP seats
// the first approval stamps its timestamp and records history without
// advancing state; the second distinct VP falls through to the normal
// advance path with BothVPsApproved set.
func (e *engineImpl) recordVPApproval(ctx context.Context, req *entity.TravelRequest, in ActionRequest) (bool, *ActionResult, error) {
	seats, err := e.roleRepo.CountActiveByRole(ctx, entity.RoleVP)
	if err != nil {
		return true, nil, err
	}
	if seats < 2 || req.BothVPsApproved {
		return false, nil, nil
	}

	if req.FirstVPApprovedBy == in.ActorID {
		return true, nil, fmt.Errorf("%w: approval already recorded for this VP", domainwf.ErrInvalidState)
	}

	if req.FirstVPApprovedBy != "" {
		// Second VP: mark both approved and let the caller advance
		req.BothVPsApproved = true
		return false, nil, nil
	}

	now := time.Now()
	key := in.IdempotencyKey
	if key == "" {
		key = deriveIdempotencyKey(req.ID, req.Status, req.Status, in.ActorID, now)
	}

	evt := &entity.TravelHistory{
		RequestID:      req.ID,
		ActorID:        in.ActorID,
		ActorRole:      entity.RoleVP.String(),
		Action:         domainwf.ActionApprove.String(),
		PreviousStatus: req.Status,
		NewStatus:      req.Status,
		Comment:        in.Comment,
		IdempotencyKey: key,
		Timestamp:      now,
	}

	req.FirstVPApprovedBy = in.ActorID
	req.FirstVPApprovedAt = &now

	err = e.writeTransition(ctx, req, req.Status, []*entity.TravelHistory{evt})
	if err != nil {
		return true, nil, err
	}

	e.logger.Info("First VP approval recorded",
		"request_code", req.RequestCode,
		"actor_id", in.ActorID,
	)

	return true, &ActionResult{Request: req, Events: []*entity.TravelHistory{evt}}, nil
}

// applySkips advances the machine through every auto-skip that fires on the
// entered state, recording one synthetic system event per skip so the audit
// trail has no silent gaps
func (e *engineImpl) applySkips(machine domainwf.StateMachine, facts domainwf.Facts, req *entity.TravelRequest, events []*entity.TravelHistory) []*entity.TravelHistory {
	for machine.CanFire(facts, domainwf.ActionAutoSkip) {
		from := machine.State()
		if err := machine.Fire(facts, domainwf.ActionAutoSkip); err != nil {
			break
		}
		to := machine.State()
		rule := domainwf.SkipRuleID(from, to)

		req.SmartSkipsApplied = append(req.SmartSkipsApplied, rule)
		events = append(events, &entity.TravelHistory{
			RequestID:      req.ID,
			ActorID:        entity.SystemActorID,
			ActorRole:      entity.SystemActorID,
			Action:         domainwf.ActionAutoSkip.String(),
			PreviousStatus: from.String(),
			NewStatus:      to.String(),
			SkipRule:       rule,
			Timestamp:      time.Now(),
		})
	}
	return events
}

// finalizeState stamps the request with its post-transition state and
// re-resolves the expected approver for the new stage
func (e *engineImpl) finalizeState(ctx context.Context, req *entity.TravelRequest, state domainwf.State) {
	req.Status = state.String()
	req.CurrentApproverRole = ""
	req.CurrentApproverID = ""

	if state == domainwf.StateApproved {
		now := time.Now()
		req.ApprovalTime = &now
		return
	}
	if state.IsTerminal() || state == domainwf.StateDraft {
		return
	}

	approver, err := e.assignmentResolver.ResolveCurrentApprover(ctx, req)
	if err != nil {
		// Assignment resolution is best-effort: eligibility is still
		// enforced at actor-resolution time
		e.logger.Error("Failed to resolve current approver", "request_code", req.RequestCode, "error", err)
		return
	}
	req.CurrentApproverRole = approver.Role.String()
	req.CurrentApproverID = approver.IndividualID
}

// writeTransition persists the request mutation and its history events as
// one atomic unit, guarded by a compare-and-swap on the stored status
func (e *engineImpl) writeTransition(ctx context.Context, req *entity.TravelRequest, fromStatus string, events []*entity.TravelHistory) error {
	return e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err := e.requestRepo.UpdateCAS(txCtx, req, fromStatus)
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if !updated {
			return domainwf.ErrStaleState
		}
		for _, evt := range events {
			if err := e.historyRepo.Append(txCtx, evt); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
		}
		return nil
	})
}

// replayByKey returns the recorded outcome of an already-committed action,
// or nil when the key is unseen
func (e *engineImpl) replayByKey(ctx context.Context, key string) (*ActionResult, error) {
	existing, err := e.historyRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	req, err := e.requestRepo.GetByID(ctx, existing.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domainwf.ErrUnknownRequest
	}

	e.logger.Info("Replayed idempotent action",
		"request_code", req.RequestCode,
		"idempotency_key", key,
	)

	return &ActionResult{Request: req, Events: []*entity.TravelHistory{existing}}, nil
}

// emitTransition publishes a transition event for the notification
// collaborator; the engine never delivers notifications itself
func (e *engineImpl) emitTransition(ctx context.Context, eventType event.Type, req *entity.TravelRequest, action, previousStatus string) {
	if e.dispatcher == nil {
		return
	}

	e.dispatcher.DispatchAsync(ctx, event.NewEvent(
		eventType,
		req.ID,
		req.RequestCode,
		map[string]interface{}{
			"previous_status": previousStatus,
			"new_status":      req.Status,
			"action":          action,
			"notify_role":     req.CurrentApproverRole,
			"notify_user":     req.CurrentApproverID,
		},
	))
}

// eventTypeFor maps a destination state to the event type emitted for it
func eventTypeFor(state domainwf.State) event.Type {
	switch state {
	case domainwf.StateApproved:
		return event.TypeRequestApproved
	case domainwf.StateRejected:
		return event.TypeRequestRejected
	case domainwf.StateCompleted:
		return event.TypeRequestCompleted
	default:
		return event.TypeStatusChanged
	}
}

// deriveIdempotencyKey buckets retried submissions of the same transition
// into one key so a crashed caller can safely retry
func deriveIdempotencyKey(requestID int64, prev, next, actorID string, at time.Time) string {
	return fmt.Sprintf("%d:%s:%s:%s:%d", requestID, prev, next, actorID, at.Unix()/60)
}
