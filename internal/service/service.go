// Package service is the entry point the HTTP layer and CLI call into. Every
// read recomputes threads and summaries from the current datasets.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ceassist/internal/approvals"
	"ceassist/internal/cache"
	"ceassist/internal/clock"
	"ceassist/internal/crm"
	"ceassist/internal/dataset"
	"ceassist/internal/events"
	"ceassist/internal/export"
	"ceassist/internal/metrics"
	"ceassist/internal/models"
	"ceassist/internal/summary"
	"ceassist/internal/threads"

	"github.com/rs/zerolog"
)

const snapshotKey = "latest"

// Options configures a Service. Source and Store are required.
type Options struct {
	Source          dataset.Source
	Store           approvals.Store
	Artifact        *export.Artifact // optional; rewritten after every approval
	Publisher       events.Publisher // optional; defaults to events.NopPublisher
	Clock           clock.Clock      // optional; defaults to the wall clock
	Logger          zerolog.Logger
	DefaultApprover string
	SnapshotTTL     time.Duration
}

// Service summarizes threads and manages their approvals.
type Service struct {
	source          dataset.Source
	store           approvals.Store
	artifact        *export.Artifact
	publisher       events.Publisher
	clock           clock.Clock
	logger          zerolog.Logger
	defaultApprover string
	snapshotTTL     time.Duration
	snapshots       *cache.Cache[models.ExportSnapshot]

	// mu serializes approval upserts with the export rewrite that follows them.
	mu sync.Mutex
}

// New creates a Service.
func New(opts Options) *Service {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 5 * time.Minute
	}
	return &Service{
		source:          opts.Source,
		store:           opts.Store,
		artifact:        opts.Artifact,
		publisher:       opts.Publisher,
		clock:           opts.Clock,
		logger:          opts.Logger.With().Str("component", "service").Logger(),
		defaultApprover: opts.DefaultApprover,
		snapshotTTL:     opts.SnapshotTTL,
		snapshots:       cache.New[models.ExportSnapshot](opts.Clock),
	}
}

// LoadEnrichedThreads normalizes every thread in the dataset and attaches
// its summary. Approvals are not consulted.
func (s *Service) LoadEnrichedThreads(ctx context.Context) ([]models.EnrichedThread, error) {
	raw, err := s.source.Threads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load threads: %w", err)
	}
	customers, err := s.source.Customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	idx := crm.BuildIndex(customers)
	s.logger.Debug().
		Int("threads", len(raw)).
		Int("customers", len(customers)).
		Int("indexed_orders", idx.Len()).
		Msg("Datasets loaded")
	for _, c := range idx.Conflicts() {
		s.logger.Warn().
			Str("order_id", c.OrderID).
			Str("previous_customer", c.Previous).
			Str("customer", c.Winner).
			Msg("Order claimed by multiple customers, keeping the last")
	}

	enriched := make([]models.EnrichedThread, 0, len(raw))
	for _, r := range raw {
		t := threads.Normalize(r)
		enriched = append(enriched, models.EnrichedThread{
			Thread:  t,
			Summary: summary.Build(t, idx),
		})
	}
	return enriched, nil
}

// ListThreads is LoadEnrichedThreads with each thread's current approval
// attached.
func (s *Service) ListThreads(ctx context.Context) ([]models.EnrichedThread, error) {
	enriched, approvalsByThread, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range enriched {
		if enriched[i].ThreadID == nil {
			continue
		}
		if a, ok := approvalsByThread[enriched[i].ID()]; ok {
			enriched[i].Approval = &a
		}
	}
	return enriched, nil
}

// UpsertApproval records an approval, replacing any earlier one for the
// thread, then rewrites the export artifact and announces the approval. The
// approval is returned even when the export rewrite fails, together with
// the error.
func (s *Service) UpsertApproval(ctx context.Context, threadID, approvedSummary, approver string) (models.Approval, error) {
	approval, err := approvals.Derive(threadID, approvedSummary, approver, s.defaultApprover, s.clock.Now())
	if err != nil {
		return models.Approval{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Upsert(ctx, threadID, approval); err != nil {
		return models.Approval{}, fmt.Errorf("failed to persist approval: %w", err)
	}
	s.logger.Info().
		Str("thread_id", threadID).
		Str("approver", approval.Approver).
		Str("approved_status", string(approval.ApprovedStatus)).
		Msg("Approval recorded")

	if _, err := s.refreshSnapshot(ctx); err != nil {
		// The cached snapshot predates this approval.
		s.snapshots.Delete(snapshotKey)
		return approval, fmt.Errorf("approval stored but export refresh failed: %w", err)
	}

	event := events.NewApprovalRecorded(threadID, approval, s.clock.Now())
	if err := s.publisher.PublishApproval(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("thread_id", threadID).Msg("Failed to publish approval event")
	}

	return approval, nil
}

// GenerateExport returns one record per thread joined with its approval.
func (s *Service) GenerateExport(ctx context.Context) ([]models.ExportRecord, error) {
	enriched, approvalsByThread, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return export.Generate(enriched, approvalsByThread), nil
}

// ExportTable returns the export as rows, header first.
func (s *Service) ExportTable(ctx context.Context) ([][]string, error) {
	records, err := s.GenerateExport(ctx)
	if err != nil {
		return nil, err
	}
	return export.Table(records), nil
}

// ComputeMetrics aggregates the current threads and approvals.
func (s *Service) ComputeMetrics(ctx context.Context) (models.MetricsSnapshot, error) {
	enriched, approvalsByThread, err := s.load(ctx)
	if err != nil {
		return models.MetricsSnapshot{}, err
	}
	return metrics.Compute(enriched, approvalsByThread), nil
}

// LatestSnapshot returns the most recently generated export, generating a
// fresh one when none is cached.
func (s *Service) LatestSnapshot(ctx context.Context) (models.ExportSnapshot, error) {
	if snap, ok := s.snapshots.Get(snapshotKey); ok {
		return snap, nil
	}
	return s.refreshSnapshot(ctx)
}

// refreshSnapshot regenerates the export, caches it and rewrites the
// artifact file when one is configured.
func (s *Service) refreshSnapshot(ctx context.Context) (models.ExportSnapshot, error) {
	records, err := s.GenerateExport(ctx)
	if err != nil {
		return models.ExportSnapshot{}, err
	}
	if s.artifact != nil {
		if err := s.artifact.Save(ctx, records); err != nil {
			return models.ExportSnapshot{}, err
		}
		s.logger.Debug().Str("path", s.artifact.Path()).Int("records", len(records)).Msg("Export artifact written")
	}

	snap := models.ExportSnapshot{GeneratedAt: s.clock.Now(), Records: records}
	s.snapshots.Set(snapshotKey, snap, s.snapshotTTL)
	return snap, nil
}

func (s *Service) load(ctx context.Context) ([]models.EnrichedThread, map[string]models.Approval, error) {
	enriched, err := s.LoadEnrichedThreads(ctx)
	if err != nil {
		return nil, nil, err
	}
	approvalsByThread, err := s.store.All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load approvals: %w", err)
	}
	return enriched, approvalsByThread, nil
}

// Close releases the approval store and event publisher.
func (s *Service) Close() error {
	pubErr := s.publisher.Close()
	if err := s.store.Close(); err != nil {
		return err
	}
	return pubErr
}
