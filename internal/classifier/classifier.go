// Package classifier derives intent, requested action and workflow status
// from free text using ordered keyword rule tables. Matching is a
// case-insensitive substring test and the first matching rule wins, so the
// order of each table is the tie-break policy.
package classifier

import (
	"strings"

	"ceassist/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rule pairs a predicate over lowercased text with the value it yields.
type Rule[T ~string] struct {
	Name   string
	Match  func(lowered string) bool
	Result T
}

var intentRules = []Rule[models.Intent]{
	{Name: "damaged", Match: containsAny("damaged", "broken", "defective"), Result: models.IntentDamaged},
	{Name: "delivery", Match: containsAny("late", "delayed", "where is", "tracking"), Result: models.IntentDeliveryDelay},
	{Name: "variant", Match: containsAny("wrong", "color", "size", "variant"), Result: models.IntentWrongVariant},
	{Name: "return_refund", Match: containsAny("return", "refund"), Result: models.IntentReturnRefund},
	{Name: "address", Match: containsAny("address", "confirm address"), Result: models.IntentAddressConfirmation},
}

var actionRules = []Rule[models.Action]{
	{Name: "refund", Match: containsAny("refund"), Result: models.ActionRefund},
	{Name: "replacement", Match: containsAny("replace", "replacement"), Result: models.ActionReplacement},
	{Name: "return", Match: containsAny("return"), Result: models.ActionReturn},
	{Name: "confirm_address", Match: allOf(containsAny("address"), containsAny("confirm", "confirmation")), Result: models.ActionConfirmAddress},
}

var statusRules = []Rule[models.Status]{
	{Name: "resolved", Match: containsAny("resolved", "approved", "approve"), Result: models.StatusResolved},
	{Name: "pending", Match: containsAny("pending", "awaiting", "need", "confirm"), Result: models.StatusPending},
	{Name: "in_progress", Match: containsAny("reroute", "replacement", "refund", "return"), Result: models.StatusInProgress},
}

// ClassifyIntent returns the first intent whose keywords appear in text,
// or General inquiry when none do.
func ClassifyIntent(text string) models.Intent {
	if intent, ok := firstMatch(intentRules, text); ok {
		return intent
	}
	return models.IntentGeneralInquiry
}

// ClassifyRequestedAction returns the action the text asks for. The second
// result is false when no action could be identified.
func ClassifyRequestedAction(text string) (models.Action, bool) {
	return firstMatch(actionRules, text)
}

// ClassifyStatus returns the workflow status implied by text, or Open.
func ClassifyStatus(text string) models.Status {
	if status, ok := firstMatch(statusRules, text); ok {
		return status
	}
	return models.StatusOpen
}

func firstMatch[T ~string](rules []Rule[T], text string) (T, bool) {
	// A Caser holds state, so each call gets its own. Lowercase, not fold:
	// "ſize" must not match "size".
	lowered := cases.Lower(language.Und).String(text)
	for _, rule := range rules {
		if rule.Match(lowered) {
			return rule.Result, true
		}
	}
	var zero T
	return zero, false
}

func containsAny(keywords ...string) func(string) bool {
	return func(text string) bool {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}
}

func allOf(predicates ...func(string) bool) func(string) bool {
	return func(text string) bool {
		for _, p := range predicates {
			if !p(text) {
				return false
			}
		}
		return true
	}
}
