package approvals

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"ceassist/internal/database"
	"ceassist/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approvalColumns = []string{"thread_id", "approved_summary", "approver", "approved_at", "approved_intent", "approved_status"}

func newMockStore(t *testing.T, driver string) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS approvals").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLStore(context.Background(), sqlx.NewDb(mockDB, driver), zerolog.Nop())
	require.NoError(t, err)
	return store, mock
}

func TestNewSQLStore_CreateTableFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS approvals").WillReturnError(sql.ErrConnDone)

	_, err = NewSQLStore(context.Background(), sqlx.NewDb(mockDB, "sqlmock"), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create approvals table")
}

func TestSQLStore_Upsert(t *testing.T) {
	tests := []struct {
		name          string
		driver        string
		expectedQuery string
	}{
		{"on conflict dialect", "sqlmock", "ON CONFLICT \\(thread_id\\) DO UPDATE SET"},
		{"mysql dialect", database.DriverMySQL, "ON DUPLICATE KEY UPDATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t, tt.driver)

			a, err := Derive("T-1", "Refund approved, case resolved", "jane", "", approvedAt)
			require.NoError(t, err)

			mock.ExpectExec("INSERT INTO approvals .*"+tt.expectedQuery).
				WithArgs("T-1", "Refund approved, case resolved", "jane", "2025-01-02T03:04:05Z",
					string(models.IntentReturnRefund), string(models.StatusResolved)).
				WillReturnResult(sqlmock.NewResult(1, 1))

			require.NoError(t, store.Upsert(context.Background(), "T-1", a))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_UpsertFailure(t *testing.T) {
	store, mock := newMockStore(t, "sqlmock")

	mock.ExpectExec("INSERT INTO approvals").WillReturnError(sql.ErrConnDone)

	err := store.Upsert(context.Background(), "T-1", models.Approval{ApprovedAt: approvedAt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store approval")
}

func TestSQLStore_Get(t *testing.T) {
	store, mock := newMockStore(t, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM approvals WHERE thread_id = \\?").
		WithArgs("T-1").
		WillReturnRows(sqlmock.NewRows(approvalColumns).
			AddRow("T-1", "resolved", "jane", "2025-01-02T03:04:05Z", "General inquiry", "Resolved/Approved"))
	mock.ExpectRollback()

	a, ok, err := store.Get(context.Background(), "T-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jane", a.Approver)
	assert.Equal(t, models.StatusResolved, a.ApprovedStatus)
	assert.True(t, a.ApprovedAt.Equal(approvedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetMissing(t *testing.T) {
	store, mock := newMockStore(t, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM approvals WHERE thread_id = \\?").
		WithArgs("T-404").
		WillReturnRows(sqlmock.NewRows(approvalColumns))
	mock.ExpectRollback()

	_, ok, err := store.Get(context.Background(), "T-404")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_All(t *testing.T) {
	store, mock := newMockStore(t, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM approvals").
		WillReturnRows(sqlmock.NewRows(approvalColumns).
			AddRow("T-1", "resolved", "jane", "2025-01-02T03:04:05Z", "General inquiry", "Resolved/Approved").
			AddRow("T-2", "pending", "bob", "2025-01-02T03:04:05.5Z", "General inquiry", "Pending - Awaiting customer/company action"))
	mock.ExpectRollback()

	all, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "bob", all["T-2"].Approver)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AllBadTimestamp(t *testing.T) {
	store, mock := newMockStore(t, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM approvals").
		WillReturnRows(sqlmock.NewRows(approvalColumns).
			AddRow("T-1", "resolved", "jane", "not a time", "General inquiry", "Resolved/Approved").
			AddRow("T-2", "resolved", "bob", "2025-01-02T03:04:05Z", "General inquiry", "Resolved/Approved"))
	mock.ExpectRollback()

	all, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.NotContains(t, all, "T-1")
	assert.Equal(t, "bob", all["T-2"].Approver)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetBadTimestamp(t *testing.T) {
	store, mock := newMockStore(t, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM approvals WHERE thread_id = \\?").
		WithArgs("T-1").
		WillReturnRows(sqlmock.NewRows(approvalColumns).
			AddRow("T-1", "resolved", "jane", "not a time", "General inquiry", "Resolved/Approved"))
	mock.ExpectRollback()

	_, ok, err := store.Get(context.Background(), "T-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SQLite(t *testing.T) {
	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "approvals.db"))
	require.NoError(t, err)

	store, err := NewSQLStore(context.Background(), db, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	storeContract(t, store)
}

func TestSQLStore_SQLiteSkipsMalformedRows(t *testing.T) {
	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "approvals.db"))
	require.NoError(t, err)

	store, err := NewSQLStore(context.Background(), db, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	a, err := Derive("T-1", "resolved", "jane", "", approvedAt)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "T-1", a))

	_, err = db.ExecContext(ctx, db.Rebind(insertApproval),
		"T-9", "resolved", "legacy", "2025-01-01 10:00:00", "General inquiry", "Resolved/Approved")
	require.NoError(t, err)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Contains(t, all, "T-1")

	_, ok, err := store.Get(ctx, "T-9")
	require.NoError(t, err)
	assert.False(t, ok)
}
