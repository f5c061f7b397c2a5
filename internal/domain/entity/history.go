package entity

import "time"

// TravelHistory is one append-only audit record per successful transition.
// Records are immutable once written; ordering by ID reconstructs the full
// approval timeline. Failed transition attempts produce no record.
type TravelHistory struct {
	ID             int64     `json:"id"`
	RequestID      int64     `json:"request_id"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	Action         string    `json:"action"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Comment        string    `json:"comment,omitempty"`
	SkipRule       string    `json:"skip_rule,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// SystemActorID is the actor recorded on engine-performed auto-skips
const SystemActorID = "system"
