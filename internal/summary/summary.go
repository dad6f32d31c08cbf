// Package summary builds the structured, rules-derived view of a thread
// that associates review before approving.
package summary

import (
	"fmt"
	"strings"

	"ceassist/internal/classifier"
	"ceassist/internal/crm"
	"ceassist/internal/models"
)

// DefaultSLAHours applies to any intent missing from the SLA table.
const DefaultSLAHours = 24

// FallbackStep is suggested when no intent-specific guidance applies.
const FallbackStep = "Clarify issue and propose resolution options"

var slaHours = map[models.Intent]int{
	models.IntentDamaged:             24,
	models.IntentWrongVariant:        24,
	models.IntentDeliveryDelay:       12,
	models.IntentReturnRefund:        24,
	models.IntentAddressConfirmation: 6,
	models.IntentGeneralInquiry:      24,
}

var guidance = []struct {
	intent models.Intent
	step   string
}{
	{models.IntentDamaged, "Request photos if not provided; offer refund or replacement"},
	{models.IntentWrongVariant, "Offer prepaid return label and correct replacement shipment"},
	{models.IntentDeliveryDelay, "Provide tracking status; escalate to carrier if >48h stalled"},
	{models.IntentReturnRefund, "Initiate RMA and inform refund timeline (3–5 business days)"},
	{models.IntentAddressConfirmation, "Confirm full address and hold shipment until verified"},
}

// Build summarizes a normalized thread. idx may be nil, in which case the
// CRM context keeps its defaults.
func Build(t models.Thread, idx *crm.Index) models.Summary {
	customerText := firstBody(t.Messages, models.SenderCustomer)
	companyText := lastBody(t.Messages, models.SenderCompany)

	intent := classifier.ClassifyIntent(strings.Join([]string{
		models.Value(t.Topic),
		models.Value(t.Subject),
		customerText,
	}, " "))
	status := classifier.ClassifyStatus(companyText)

	var requested *models.Action
	if action, ok := classifier.ClassifyRequestedAction(customerText); ok {
		requested = &action
	}

	steps := NextSteps(intent)
	s := models.Summary{
		OrderID:         t.OrderID,
		Product:         t.Product,
		Intent:          intent,
		RequestedAction: requested,
		Status:          status,
		NextSteps:       steps,
		CRMContext:      crm.Enrich(crm.DefaultContext(SLAHours(intent)), t.OrderID, idx),
	}
	s.SummaryText = Render(s)
	return s
}

// SLAHours returns the response SLA for an intent.
func SLAHours(intent models.Intent) int {
	if h, ok := slaHours[intent]; ok {
		return h
	}
	return DefaultSLAHours
}

// NextSteps returns the guidance for an intent, in table order.
func NextSteps(intent models.Intent) []string {
	var steps []string
	for _, g := range guidance {
		if g.intent == intent {
			steps = append(steps, g.step)
		}
	}
	if len(steps) == 0 {
		steps = append(steps, FallbackStep)
	}
	return steps
}

// Render produces the bullet-list text shown to associates.
func Render(s models.Summary) string {
	requested := "Unclear"
	if s.RequestedAction != nil {
		requested = string(*s.RequestedAction)
	}

	lines := []string{
		fmt.Sprintf("- Order: %s", orUnknown(s.OrderID)),
		fmt.Sprintf("- Product: %s", orUnknown(s.Product)),
		fmt.Sprintf("- Intent: %s", s.Intent),
		fmt.Sprintf("- Customer requested: %s", requested),
		fmt.Sprintf("- Status: %s", s.Status),
		"- Next steps: " + strings.Join(s.NextSteps, "; "),
	}
	return strings.Join(lines, "\n")
}

func firstBody(messages []models.Message, sender string) string {
	for _, m := range messages {
		if m.Sender == sender {
			return m.Body
		}
	}
	return ""
}

func lastBody(messages []models.Message, sender string) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == sender {
			return messages[i].Body
		}
	}
	return ""
}

func orUnknown(s *string) string {
	if s == nil {
		return "Unknown"
	}
	return *s
}
