// Package export flattens threads, summaries and approvals into one record
// per thread, in structured and tabular form.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"ceassist/internal/fileio"
	"ceassist/internal/models"
)

// ListSeparator joins multi-valued fields in the tabular form.
const ListSeparator = ";"

var header = []string{
	"thread_id",
	"order_id",
	"product",
	"intent",
	"status",
	"approved_summary",
	"approved_intent",
	"approved_status",
	"customer_id",
	"customer_tier",
	"entitlements",
	"shipping_constraints",
}

// Header returns the tabular column order.
func Header() []string {
	return slices.Clone(header)
}

// Generate builds one record per thread, in thread order. Approval fields
// stay nil for threads without an approval.
func Generate(threads []models.EnrichedThread, approvals map[string]models.Approval) []models.ExportRecord {
	records := make([]models.ExportRecord, 0, len(threads))
	for _, t := range threads {
		crm := t.Summary.CRMContext
		rec := models.ExportRecord{
			ThreadID:            t.ThreadID,
			OrderID:             t.OrderID,
			Product:             t.Product,
			Intent:              t.Summary.Intent,
			Status:              t.Summary.Status,
			CustomerID:          crm.CustomerID,
			CustomerTier:        crm.CustomerTier,
			Entitlements:        slices.Clone(crm.Entitlements),
			ShippingConstraints: slices.Clone(crm.ShippingConstraints),
		}
		if t.ThreadID != nil {
			if a, ok := approvals[*t.ThreadID]; ok {
				rec.ApprovedSummary = models.Ptr(a.ApprovedSummary)
				rec.ApprovedIntent = models.Ptr(a.ApprovedIntent)
				rec.ApprovedStatus = models.Ptr(a.ApprovedStatus)
			}
		}
		records = append(records, rec)
	}
	return records
}

// Rows renders records in Header order. Absent values become empty cells.
func Rows(records []models.ExportRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			models.Value(r.ThreadID),
			models.Value(r.OrderID),
			models.Value(r.Product),
			string(r.Intent),
			string(r.Status),
			flatten(models.Value(r.ApprovedSummary)),
			optional(r.ApprovedIntent),
			optional(r.ApprovedStatus),
			models.Value(r.CustomerID),
			r.CustomerTier,
			strings.Join(r.Entitlements, ListSeparator),
			strings.Join(r.ShippingConstraints, ListSeparator),
		})
	}
	return rows
}

// Table is Rows with the header prepended.
func Table(records []models.ExportRecord) [][]string {
	return append([][]string{Header()}, Rows(records)...)
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []models.ExportRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Table(records)); err != nil {
		return fmt.Errorf("failed to write csv export: %w", err)
	}
	return nil
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []models.ExportRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to write json export: %w", err)
	}
	return nil
}

// Artifact is the export file rewritten after every approval.
type Artifact struct {
	path string
}

// NewArtifact returns an Artifact stored at path.
func NewArtifact(path string) *Artifact {
	return &Artifact{path: path}
}

// Path returns the artifact location.
func (a *Artifact) Path() string {
	return a.path
}

// Save atomically replaces the artifact with records.
func (a *Artifact) Save(ctx context.Context, records []models.ExportRecord) error {
	var b strings.Builder
	if err := WriteJSON(&b, records); err != nil {
		return err
	}
	if err := fileio.WriteFile(ctx, a.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to save export artifact: %w", err)
	}
	return nil
}

func flatten(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func optional[T ~string](v *T) string {
	if v == nil {
		return ""
	}
	return string(*v)
}
