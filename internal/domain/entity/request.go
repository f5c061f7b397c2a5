package entity

import "time"

// TravelRequest is the unit being routed through the approval workflow
type TravelRequest struct {
	ID          int64  `json:"id"`
	RequestCode string `json:"request_code"`

	RequesterID     string `json:"requester_id"`
	FiledBy         string `json:"filed_by"`
	RequesterSigned bool   `json:"requester_signed"`
	DepartmentID    string `json:"department_id"`

	Destination     string  `json:"destination"`
	Purpose         string  `json:"purpose"`
	IsInternational bool    `json:"is_international"`
	TotalBudget     float64 `json:"total_budget"`

	// RequiresBudgetReview is set at creation from whether any cost line is
	// non-zero and is never recomputed afterwards
	RequiresBudgetReview bool `json:"requires_budget_review"`

	Status string `json:"status"`

	// CurrentApprover pins a specific individual when the stage requires one;
	// empty IndividualID means any holder of the role may act
	CurrentApproverRole string `json:"current_approver_role,omitempty"`
	CurrentApproverID   string `json:"current_approver_id,omitempty"`

	// Dual-VP bookkeeping
	FirstVPApprovedBy string     `json:"first_vp_approved_by,omitempty"`
	FirstVPApprovedAt *time.Time `json:"first_vp_approved_at,omitempty"`
	BothVPsApproved   bool       `json:"both_vps_approved"`

	// SmartSkipsApplied lists the skip-rule identifiers that fired, in order
	SmartSkipsApplied []string `json:"smart_skips_applied,omitempty"`

	TravelStart time.Time `json:"travel_start"`
	TravelEnd   time.Time `json:"travel_end"`

	SubmissionTime time.Time  `json:"submission_time"`
	ApprovalTime   *time.Time `json:"approval_time,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FiledByRepresentative reports whether the request was filed on behalf of
// someone else who has not yet signed it
func (r *TravelRequest) FiledByRepresentative() bool {
	return r.FiledBy != "" && r.FiledBy != r.RequesterID
}
