package approvals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ceassist/internal/database"
	"ceassist/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const queryTimeout = 30 * time.Second

const createApprovalsTable = `CREATE TABLE IF NOT EXISTS approvals (
	thread_id VARCHAR(255) PRIMARY KEY,
	approved_summary TEXT NOT NULL,
	approver VARCHAR(255) NOT NULL,
	approved_at VARCHAR(64) NOT NULL,
	approved_intent VARCHAR(255) NOT NULL,
	approved_status VARCHAR(255) NOT NULL
)`

const selectApprovals = `SELECT thread_id, approved_summary, approver, approved_at, approved_intent, approved_status FROM approvals`

const insertApproval = `INSERT INTO approvals (thread_id, approved_summary, approver, approved_at, approved_intent, approved_status)
	VALUES (?, ?, ?, ?, ?, ?)`

const upsertApprovalConflict = insertApproval + `
	ON CONFLICT (thread_id) DO UPDATE SET
		approved_summary = excluded.approved_summary,
		approver = excluded.approver,
		approved_at = excluded.approved_at,
		approved_intent = excluded.approved_intent,
		approved_status = excluded.approved_status`

const upsertApprovalMySQL = insertApproval + `
	ON DUPLICATE KEY UPDATE
		approved_summary = VALUES(approved_summary),
		approver = VALUES(approver),
		approved_at = VALUES(approved_at),
		approved_intent = VALUES(approved_intent),
		approved_status = VALUES(approved_status)`

type approvalRow struct {
	ThreadID        string `db:"thread_id"`
	ApprovedSummary string `db:"approved_summary"`
	Approver        string `db:"approver"`
	ApprovedAt      string `db:"approved_at"`
	ApprovedIntent  string `db:"approved_intent"`
	ApprovedStatus  string `db:"approved_status"`
}

func (r approvalRow) approval() (models.Approval, error) {
	at, err := time.Parse(time.RFC3339Nano, r.ApprovedAt)
	if err != nil {
		return models.Approval{}, fmt.Errorf("invalid approved_at for %s: %w", r.ThreadID, err)
	}
	return models.Approval{
		ApprovedSummary: r.ApprovedSummary,
		Approver:        r.Approver,
		ApprovedAt:      at.UTC(),
		ApprovedIntent:  models.Intent(r.ApprovedIntent),
		ApprovedStatus:  models.Status(r.ApprovedStatus),
	}, nil
}

// SQLStore keeps approvals in an approvals table on PostgreSQL, MySQL or
// SQLite. Rows that cannot be decoded are logged and read as absent.
type SQLStore struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewSQLStore creates the approvals table if needed.
func NewSQLStore(ctx context.Context, db *sqlx.DB, logger zerolog.Logger) (*SQLStore, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, createApprovalsTable); err != nil {
		return nil, fmt.Errorf("failed to create approvals table: %w", err)
	}
	return &SQLStore{
		db:     db,
		logger: logger.With().Str("component", "approvals").Str("driver", db.DriverName()).Logger(),
	}, nil
}

func (s *SQLStore) Get(ctx context.Context, threadID string) (models.Approval, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row approvalRow
	err := database.ReadQuerySingle(ctx, s.db, &row, selectApprovals+` WHERE thread_id = ?`, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Approval{}, false, nil
	}
	if err != nil {
		return models.Approval{}, false, err
	}
	a, err := row.approval()
	if err != nil {
		s.logger.Warn().Err(err).Str("thread_id", threadID).Msg("Ignoring malformed approval")
		return models.Approval{}, false, nil
	}
	return a, true, nil
}

func (s *SQLStore) Upsert(ctx context.Context, threadID string, approval models.Approval) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := upsertApprovalConflict
	if s.db.DriverName() == database.DriverMySQL {
		query = upsertApprovalMySQL
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		threadID,
		approval.ApprovedSummary,
		approval.Approver,
		approval.ApprovedAt.UTC().Format(time.RFC3339Nano),
		string(approval.ApprovedIntent),
		string(approval.ApprovedStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to store approval: %w", err)
	}
	return nil
}

func (s *SQLStore) All(ctx context.Context) (map[string]models.Approval, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []approvalRow
	if err := database.ReadQuery(ctx, s.db, &rows, selectApprovals); err != nil {
		return nil, err
	}

	approvals := make(map[string]models.Approval, len(rows))
	for _, row := range rows {
		a, err := row.approval()
		if err != nil {
			s.logger.Warn().Err(err).Str("thread_id", row.ThreadID).Msg("Skipping malformed approval")
			continue
		}
		approvals[row.ThreadID] = a
	}
	return approvals, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
