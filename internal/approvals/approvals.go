// Package approvals persists one approval decision per thread. Approved
// intent and status are always re-derived from the approved text.
package approvals

import (
	"context"
	"fmt"
	"time"

	"ceassist/internal/classifier"
	"ceassist/internal/models"
)

// DefaultApprover is recorded when the caller does not name an approver.
const DefaultApprover = "ce_associate"

// Store is the approval side-table keyed by thread ID. Upsert overwrites any
// previous approval for the thread; no history is kept.
type Store interface {
	Get(ctx context.Context, threadID string) (models.Approval, bool, error)
	Upsert(ctx context.Context, threadID string, approval models.Approval) error
	All(ctx context.Context) (map[string]models.Approval, error)
	Close() error
}

// Derive validates an approval request and builds the record to persist.
// An empty approver falls back to fallback, then to DefaultApprover.
func Derive(threadID, approvedSummary, approver, fallback string, now time.Time) (models.Approval, error) {
	if threadID == "" || approvedSummary == "" {
		return models.Approval{}, fmt.Errorf("%w: thread_id and approved_summary are required", models.ErrValidation)
	}
	if approver == "" {
		approver = fallback
	}
	if approver == "" {
		approver = DefaultApprover
	}
	return models.Approval{
		ApprovedSummary: approvedSummary,
		Approver:        approver,
		ApprovedAt:      now.UTC(),
		ApprovedIntent:  classifier.ClassifyIntent(approvedSummary),
		ApprovedStatus:  classifier.ClassifyStatus(approvedSummary),
	}, nil
}
