// Package metrics aggregates approval and resolution figures across threads.
package metrics

import (
	"math"
	"strings"

	"ceassist/internal/models"
)

// MinutesSavedPerApproval is the time-saved heuristic applied per approval.
const MinutesSavedPerApproval = 4

// Notes describes the heuristics behind the snapshot.
const Notes = "Deflection proxy uses intents: delivery/address; time-saved assumes 4m per approval."

var deflectionIntents = []models.Intent{
	models.IntentDeliveryDelay,
	models.IntentAddressConfirmation,
}

// Compute aggregates threads against the approval table. Rates are rounded
// to three decimal places and are 0 when their denominator is 0.
func Compute(threads []models.EnrichedThread, approvals map[string]models.Approval) models.MetricsSnapshot {
	var approved, resolved, deflectable, deflected int

	for _, t := range threads {
		approval, hasApproval := lookup(t, approvals)
		if hasApproval {
			approved++
			if isResolved(string(approval.ApprovedStatus)) {
				resolved++
			}
		}

		if !isDeflectable(t.Summary.Intent) {
			continue
		}
		deflectable++

		status := string(t.Summary.Status)
		if hasApproval && approval.ApprovedStatus != "" {
			status = string(approval.ApprovedStatus)
		}
		if isResolved(status) {
			deflected++
		}
	}

	total := len(threads)
	return models.MetricsSnapshot{
		TotalThreads:              total,
		ApprovedCount:             approved,
		ResolvedCount:             resolved,
		ApprovalRate:              rate(approved, total),
		ResolvedRate:              rate(resolved, total),
		DeflectionRate:            rate(deflected, deflectable),
		EstimatedTimeSavedMinutes: approved * MinutesSavedPerApproval,
		Notes:                     Notes,
	}
}

func lookup(t models.EnrichedThread, approvals map[string]models.Approval) (models.Approval, bool) {
	if t.ThreadID == nil {
		return models.Approval{}, false
	}
	a, ok := approvals[*t.ThreadID]
	return a, ok
}

func isResolved(status string) bool {
	return strings.HasPrefix(strings.ToLower(status), "resolved")
}

func isDeflectable(intent models.Intent) bool {
	for _, d := range deflectionIntents {
		if strings.EqualFold(string(intent), string(d)) {
			return true
		}
	}
	return false
}

func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*1000) / 1000
}
