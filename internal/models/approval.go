package models

import "time"

// Approval is an associate's accepted summary for a thread
// @Description Approved thread summary
type Approval struct {
	ApprovedSummary string    `json:"approved_summary"`                            // Approved free-text summary
	Approver        string    `json:"approver" example:"ce_associate"`             // Who approved it
	ApprovedAt      time.Time `json:"approved_at" example:"2025-01-01T00:00:00Z"`  // UTC approval time
	ApprovedIntent  Intent    `json:"approved_intent" example:"General inquiry"`   // Intent derived from the approved text
	ApprovedStatus  Status    `json:"approved_status" example:"Resolved/Approved"` // Status derived from the approved text
}

// ApproveRequest represents the request body for the approve endpoint
// @Description Approval request payload
type ApproveRequest struct {
	ThreadID        string `json:"thread_id" example:"T-1001"`
	ApprovedSummary string `json:"approved_summary" example:"Refund approved, case resolved"`
	Approver        string `json:"approver,omitempty" example:"jane"`
}

// ApproveResponse represents the response from the approve endpoint
// @Description Approval response payload
type ApproveResponse struct {
	OK       bool     `json:"ok" example:"true"`
	Approval Approval `json:"approval"`
}
