package workflow

import (
	"context"

	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	domainwf "github.com/httplouis/TraveLink-sub009/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ActionRequest is the single mutation entry point's input
type ActionRequest struct {
	RequestID      int64
	ActorID        string
	Action         domainwf.Action
	Comment        string
	IdempotencyKey string
}

// ActionResult carries the updated request and the history events the
// transition produced (the acting event plus any auto-skips)
type ActionResult struct {
	Request *entity.TravelRequest
	Events  []*entity.TravelHistory
}

// PolicyConfig holds the organizational policy knobs the rule table
// evaluates at stage entry
type PolicyConfig struct {
	// PresidentBudgetThreshold routes requests above it to the president
	PresidentBudgetThreshold float64

	// EscalateHeadToParent escalates a head's own request to the parent
	// unit's head instead of skipping the head stage
	EscalateHeadToParent bool

	// CompletionActorID is the only actor accepted for the approved ->
	// completed transition
	CompletionActorID string
}

// WorkflowEngine orchestrates travel-request approval transitions
type WorkflowEngine interface {
	// Submit creates a request and routes it to its initial pending state,
	// applying any smart skips that fire on entry
	Submit(ctx context.Context, req *entity.TravelRequest) (*ActionResult, error)

	// Act validates and performs a single human transition
	// (approve, reject, return or cancel)
	Act(ctx context.Context, in ActionRequest) (*ActionResult, error)

	// Complete performs the approved -> completed transition on behalf of
	// the scheduled-completion collaborator
	Complete(ctx context.Context, requestID int64, actorID string) (*ActionResult, error)

	// GetRequest returns a request by its public code
	GetRequest(ctx context.Context, code string) (*entity.TravelRequest, error)

	// GetHistory returns the ordered audit timeline of a request
	GetHistory(ctx context.Context, requestID int64) ([]*entity.TravelHistory, error)

	// GetPendingFor returns the requests currently awaiting the actor
	GetPendingFor(ctx context.Context, actorID string) ([]*entity.TravelRequest, error)
}
