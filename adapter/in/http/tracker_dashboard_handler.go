package http

import (
	"time"

	"jobtrack_server/core/port/out"
	"jobtrack_server/core/service/dashboard"
	"jobtrack_server/pkg/logger"
	"jobtrack_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the aggregated dashboard views.
type DashboardHandler struct {
	store out.EmailStore
	agg   *dashboard.Aggregator
	log   *logger.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(store out.EmailStore, agg *dashboard.Aggregator) *DashboardHandler {
	return &DashboardHandler{
		store: store,
		agg:   agg,
		log:   logger.Default().WithField("handler", "dashboard"),
	}
}

// Register mounts the dashboard routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.GetDashboard)
	router.Get("/dashboard/threads", h.GetThreadDashboard)
	router.Get("/dashboard/threads/:threadId", h.GetThreadEmails)
}

// GetDashboard returns the flat dashboard.
// GET /api/dashboard?days=30&limit=200
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "authentication required")
	}

	daysBack := queryInt(c, "days", 30, 1, 365)
	limit := queryInt(c, "limit", 200, 1, 500)

	rows, err := h.store.GetProcessedEmails(c.Context(), userID, daysBack, limit)
	if err != nil {
		h.log.WithError(err).Error("failed to load processed emails")
		return response.InternalError(c, "failed to load dashboard data")
	}

	return response.OK(c, h.agg.BuildDashboard(rows, time.Now()))
}

// GetThreadDashboard returns the thread-grouped dashboard.
// GET /api/dashboard/threads?days=30&limit=200
func (h *DashboardHandler) GetThreadDashboard(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "authentication required")
	}

	daysBack := queryInt(c, "days", 30, 1, 365)
	limit := queryInt(c, "limit", 200, 1, 500)

	threads, err := h.store.GetEmailThreads(c.Context(), userID, daysBack, limit)
	if err != nil {
		h.log.WithError(err).Error("failed to load email threads")
		return response.InternalError(c, "failed to load dashboard data")
	}

	return response.OK(c, h.agg.BuildThreadDashboard(threads, time.Now()))
}

// GetThreadEmails returns every stored email of one conversation, oldest first.
// GET /api/dashboard/threads/:threadId
func (h *DashboardHandler) GetThreadEmails(c *fiber.Ctx) error {
	if _, ok := userIDFromCtx(c); !ok {
		return response.Unauthorized(c, "authentication required")
	}

	threadID := c.Params("threadId")
	if threadID == "" {
		return response.BadRequest(c, "thread id required")
	}

	rows, err := h.store.GetEmailsInThread(c.Context(), threadID)
	if err != nil {
		h.log.WithError(err).Error("failed to load thread %s", threadID)
		return response.InternalError(c, "failed to load thread")
	}

	return response.OK(c, fiber.Map{
		"thread_id": threadID,
		"emails":    rows,
		"count":     len(rows),
	})
}
