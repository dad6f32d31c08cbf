package models

// CRMContext carries the customer attributes joined onto a summary
type CRMContext struct {
	CustomerTier        string   `json:"customer_tier" example:"Standard"` // Customer tier
	SLAHours            int      `json:"sla_hours" example:"24"`           // Response SLA for the intent
	Entitlements        []string `json:"entitlements"`                     // Customer entitlements
	ShippingConstraints []string `json:"shipping_constraints"`             // Shipping constraints on file
	CustomerID          *string  `json:"customer_id"`                      // CRM customer ID when matched
}

// Summary is the structured, rules-derived view of a thread
// @Description Structured thread summary
type Summary struct {
	OrderID         *string    `json:"order_id"`
	Product         *string    `json:"product"`
	Intent          Intent     `json:"intent" example:"Damaged/Defective item"`
	RequestedAction *Action    `json:"requested_action"`
	Status          Status     `json:"status" example:"Open"`
	NextSteps       []string   `json:"next_steps"`
	CRMContext      CRMContext `json:"crm_context"`
	SummaryText     string     `json:"summary_markdown"`
}

// EnrichedThread is a normalized thread together with its summary and,
// when one exists, its current approval.
type EnrichedThread struct {
	Thread
	Summary  Summary   `json:"ai_summary"`
	Approval *Approval `json:"approval"`
}
