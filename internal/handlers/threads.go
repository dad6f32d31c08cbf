package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ceassist/internal/models"
	"ceassist/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ThreadsHandler lists every thread with its summary and current approval
// @Summary List summarized threads
// @Description Threads with rules-based summaries, CRM context and the current approval, if any
// @Tags threads
// @Produce json
// @Success 200 {object} models.ThreadsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/threads [get]
func ThreadsHandler(svc *service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		threads, err := svc.ListThreads(c.Request().Context())
		if err != nil {
			return internalError(c, "Failed to load threads", err)
		}
		return c.JSON(http.StatusOK, models.ThreadsResponse{Threads: threads})
	}
}

// ApproveHandler records an associate's approved summary for a thread
// @Summary Approve a thread summary
// @Description Stores the approved summary, re-deriving intent and status from its text. Replaces any earlier approval.
// @Tags threads
// @Accept json
// @Produce json
// @Param request body models.ApproveRequest true "Approval"
// @Success 200 {object} models.ApproveResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/approve [post]
func ApproveHandler(svc *service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Decode regardless of Content-Type; older clients post JSON as text/plain.
		var req models.ApproveRequest
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: fmt.Sprintf("Invalid request body: %v", err),
			})
		}

		approval, err := svc.UpsertApproval(c.Request().Context(), req.ThreadID, req.ApprovedSummary, req.Approver)
		if errors.Is(err, models.ErrValidation) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "thread_id and approved_summary are required",
			})
		}
		if err != nil {
			return internalError(c, "Failed to record approval", err)
		}

		return c.JSON(http.StatusOK, models.ApproveResponse{OK: true, Approval: approval})
	}
}

// MetricsHandler returns approval workflow metrics
// @Summary Approval metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} models.MetricsSnapshot
// @Failure 500 {object} models.ErrorResponse
// @Router /api/metrics [get]
func MetricsHandler(svc *service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		snapshot, err := svc.ComputeMetrics(c.Request().Context())
		if err != nil {
			return internalError(c, "Failed to compute metrics", err)
		}
		return c.JSON(http.StatusOK, snapshot)
	}
}

func internalError(c echo.Context, msg string, err error) error {
	log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg(msg)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: fmt.Sprintf("%s: %v", msg, err),
	})
}
