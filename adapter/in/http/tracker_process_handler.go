package http

import (
	"jobtrack_server/core/service/ingest"
	"jobtrack_server/pkg/logger"
	"jobtrack_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ProcessHandler triggers and reports on processing runs.
type ProcessHandler struct {
	service *ingest.Service
	log     *logger.Logger
}

// NewProcessHandler creates a process handler.
func NewProcessHandler(service *ingest.Service) *ProcessHandler {
	return &ProcessHandler{
		service: service,
		log:     logger.Default().WithField("handler", "process"),
	}
}

// Register mounts the process routes.
func (h *ProcessHandler) Register(router fiber.Router) {
	router.Post("/process/run", h.Run)
	router.Get("/process/stats", h.Stats)
}

type runRequest struct {
	DaysBack int `json:"days_back"`
	Limit    int `json:"limit"`
}

// Run fetches and processes recent mail synchronously.
// POST /api/process/run
func (h *ProcessHandler) Run(c *fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "authentication required")
	}

	var req runRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "invalid request body")
	}
	if req.DaysBack <= 0 || req.DaysBack > 90 {
		req.DaysBack = 7
	}
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}

	report, err := h.service.Run(c.Context(), userID, req.DaysBack, req.Limit)
	if err != nil {
		h.log.WithError(err).Error("processing run failed")
		return response.AppError(c, err)
	}

	return response.OK(c, report)
}

// Stats returns the pipeline's running counters.
// GET /api/process/stats
func (h *ProcessHandler) Stats(c *fiber.Ctx) error {
	if _, ok := userIDFromCtx(c); !ok {
		return response.Unauthorized(c, "authentication required")
	}

	stats := h.service.Stats()
	return response.OK(c, fiber.Map{
		"total_processed":        stats.TotalProcessed,
		"succeeded":              stats.Succeeded,
		"failed":                 stats.Failed,
		"job_related":            stats.JobRelated,
		"success_rate":           stats.SuccessRate(),
		"job_related_percentage": stats.JobRelatedPercentage(),
		"average_tokens":         stats.AverageTokens,
		"total_tokens":           stats.TotalTokens,
	})
}
