package models

import "time"

// ExportRecord is one denormalized row of the approval export
type ExportRecord struct {
	ThreadID            *string  `json:"thread_id"`
	OrderID             *string  `json:"order_id"`
	Product             *string  `json:"product"`
	Intent              Intent   `json:"intent"`
	Status              Status   `json:"status"`
	ApprovedSummary     *string  `json:"approved_summary"`
	ApprovedIntent      *Intent  `json:"approved_intent"`
	ApprovedStatus      *Status  `json:"approved_status"`
	CustomerID          *string  `json:"customer_id"`
	CustomerTier        string   `json:"customer_tier"`
	Entitlements        []string `json:"entitlements"`
	ShippingConstraints []string `json:"shipping_constraints"`
}

// ExportSnapshot is a generated export together with its generation time
type ExportSnapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Records     []ExportRecord `json:"records"`
}
