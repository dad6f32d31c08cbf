package handlers

import (
	"bytes"
	"net/http"

	"ceassist/internal/export"
	"ceassist/internal/service"

	"github.com/labstack/echo/v4"
)

// Export attachment names
const (
	ExportJSONFilename = "approved_export.json"
	ExportCSVFilename  = "approved_export.csv"
)

// ExportJSONHandler downloads the full export as JSON
// @Summary Download JSON export
// @Description One record per thread joined with its approval
// @Tags export
// @Produce json
// @Success 200 {array} models.ExportRecord
// @Failure 500 {object} models.ErrorResponse
// @Router /export/json [get]
func ExportJSONHandler(svc *service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		records, err := svc.GenerateExport(c.Request().Context())
		if err != nil {
			return internalError(c, "Failed to generate export", err)
		}

		var buf bytes.Buffer
		if err := export.WriteJSON(&buf, records); err != nil {
			return internalError(c, "Failed to encode export", err)
		}
		return attachment(c, ExportJSONFilename, echo.MIMEApplicationJSON, buf.Bytes())
	}
}

// ExportCSVHandler downloads the full export as CSV
// @Summary Download CSV export
// @Description Flat export with multi-valued fields joined by ";"
// @Tags export
// @Produce text/csv
// @Success 200 {string} string
// @Failure 500 {object} models.ErrorResponse
// @Router /export/csv [get]
func ExportCSVHandler(svc *service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		records, err := svc.GenerateExport(c.Request().Context())
		if err != nil {
			return internalError(c, "Failed to generate export", err)
		}

		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, records); err != nil {
			return internalError(c, "Failed to encode export", err)
		}
		return attachment(c, ExportCSVFilename, "text/csv", buf.Bytes())
	}
}

// SnapshotHandler returns the most recent export with its generation time
// @Summary Latest export snapshot
// @Description Cached export, refreshed after every approval
// @Tags export
// @Produce json
// @Success 200 {object} models.ExportSnapshot
// @Failure 500 {object} models.ErrorResponse
// @Router /api/export/snapshot [get]
func SnapshotHandler(svc *service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		snapshot, err := svc.LatestSnapshot(c.Request().Context())
		if err != nil {
			return internalError(c, "Failed to load export snapshot", err)
		}
		return c.JSON(http.StatusOK, snapshot)
	}
}

func attachment(c echo.Context, filename, contentType string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, contentType, body)
}
