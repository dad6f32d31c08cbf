package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ceassist/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enriched(id, order string, crm models.CRMContext) models.EnrichedThread {
	return models.EnrichedThread{
		Thread: models.Thread{
			ThreadID: models.Ptr(id),
			OrderID:  models.Ptr(order),
			Product:  models.Ptr("Widget"),
		},
		Summary: models.Summary{
			Intent:     models.IntentDamaged,
			Status:     models.StatusPending,
			CRMContext: crm,
		},
	}
}

func fixture() ([]models.EnrichedThread, map[string]models.Approval) {
	threads := []models.EnrichedThread{
		enriched("T-2", "X-2", models.CRMContext{
			CustomerTier:        "Gold",
			Entitlements:        []string{"free_returns", "priority_support"},
			ShippingConstraints: []string{"signature_required"},
			CustomerID:          models.Ptr("C-1"),
		}),
		enriched("T-1", "X-1", models.CRMContext{
			CustomerTier:        "Standard",
			Entitlements:        []string{},
			ShippingConstraints: []string{},
		}),
	}
	approvals := map[string]models.Approval{
		"T-1": {
			ApprovedSummary: "  Refund approved.\nCase resolved.\n",
			Approver:        "jane",
			ApprovedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ApprovedIntent:  models.IntentReturnRefund,
			ApprovedStatus:  models.StatusResolved,
		},
		"T-unknown": {ApprovedSummary: "orphan"},
	}
	return threads, approvals
}

func TestGenerate(t *testing.T) {
	threads, approvals := fixture()
	records := Generate(threads, approvals)

	require.Len(t, records, len(threads))
	assert.Equal(t, "T-2", *records[0].ThreadID, "thread order is preserved")
	assert.Equal(t, "T-1", *records[1].ThreadID)

	unapproved := records[0]
	assert.Nil(t, unapproved.ApprovedSummary)
	assert.Nil(t, unapproved.ApprovedIntent)
	assert.Nil(t, unapproved.ApprovedStatus)
	assert.Equal(t, "Gold", unapproved.CustomerTier)
	assert.Equal(t, models.Ptr("C-1"), unapproved.CustomerID)

	approved := records[1]
	require.NotNil(t, approved.ApprovedSummary)
	assert.Equal(t, "  Refund approved.\nCase resolved.\n", *approved.ApprovedSummary)
	assert.Equal(t, models.IntentReturnRefund, *approved.ApprovedIntent)
	assert.Equal(t, models.StatusResolved, *approved.ApprovedStatus)
	assert.Equal(t, models.IntentDamaged, approved.Intent)
}

func TestGenerate_ThreadWithoutID(t *testing.T) {
	threads := []models.EnrichedThread{{Summary: models.Summary{Intent: models.IntentGeneralInquiry}}}
	records := Generate(threads, map[string]models.Approval{"": {ApprovedSummary: "x"}})

	require.Len(t, records, 1)
	assert.Nil(t, records[0].ThreadID)
	assert.Nil(t, records[0].ApprovedSummary)
}

func TestGenerate_Empty(t *testing.T) {
	records := Generate(nil, nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestRows(t *testing.T) {
	threads, approvals := fixture()
	rows := Rows(Generate(threads, approvals))

	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"T-2", "X-2", "Widget",
		string(models.IntentDamaged), string(models.StatusPending),
		"", "", "",
		"C-1", "Gold", "free_returns;priority_support", "signature_required",
	}, rows[0])
	assert.Equal(t, []string{
		"T-1", "X-1", "Widget",
		string(models.IntentDamaged), string(models.StatusPending),
		"Refund approved. Case resolved.",
		string(models.IntentReturnRefund), string(models.StatusResolved),
		"", "Standard", "", "",
	}, rows[1])

	for _, row := range rows {
		assert.Len(t, row, len(Header()))
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{
		"thread_id", "order_id", "product", "intent", "status",
		"approved_summary", "approved_intent", "approved_status",
		"customer_id", "customer_tier", "entitlements", "shipping_constraints",
	}, Header())

	h := Header()
	h[0] = "changed"
	assert.Equal(t, "thread_id", Header()[0])
}

func TestWriteCSV(t *testing.T) {
	threads, approvals := fixture()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Generate(threads, approvals)))

	parsed, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)
	assert.Equal(t, Header(), parsed[0])
	assert.Equal(t, "Refund approved. Case resolved.", parsed[2][5])
}

func TestWriteJSON(t *testing.T) {
	threads, approvals := fixture()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Generate(threads, approvals)))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Nil(t, decoded[0]["approved_summary"])
	assert.Equal(t, "Return/Refund request", decoded[1]["approved_intent"])
	assert.Equal(t, []any{"free_returns", "priority_support"}, decoded[0]["entitlements"])
}

func TestArtifact_Save(t *testing.T) {
	threads, approvals := fixture()
	path := filepath.Join(t.TempDir(), "data", "approved_export.json")
	artifact := NewArtifact(path)

	require.NoError(t, artifact.Save(context.Background(), Generate(threads, approvals)))
	assert.Equal(t, path, artifact.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []models.ExportRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 2)
}

func BenchmarkRows(b *testing.B) {
	threads, approvals := fixture()
	records := Generate(threads, approvals)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Rows(records)
	}
}
