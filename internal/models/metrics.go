package models

// MetricsSnapshot aggregates approval and resolution figures over all threads
// @Description Approval workflow metrics
type MetricsSnapshot struct {
	TotalThreads              int      `json:"total_threads" example:"10"`
	ApprovedCount             int      `json:"approved_count" example:"4"`
	ResolvedCount             int      `json:"resolved_count" example:"2"`
	ApprovalRate              float64  `json:"approval_rate" example:"0.4"`
	ResolvedRate              float64  `json:"resolved_rate" example:"0.2"`
	DeflectionRate            float64  `json:"deflection_rate" example:"0.5"`
	EstimatedTimeSavedMinutes int      `json:"estimated_time_saved_minutes" example:"16"`
	CSATImpact                *float64 `json:"csat_impact"` // Not measured; always null
	Notes                     string   `json:"notes"`
}
