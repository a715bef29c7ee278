package fraud

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chatguard/fraud-monitor/pkg/common"
	"github.com/chatguard/fraud-monitor/pkg/validation"
)

// Handler handles HTTP requests for fraud scoring
type Handler struct {
	service *Service
}

// NewHandler creates a new fraud handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AnalyzeMessage scores one message and returns the alert decision
// POST /api/v1/messages/analyze
func (h *Handler) AnalyzeMessage(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.service.AnalyzeMessage(c.Request.Context(), &req)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to analyze message")
		return
	}

	common.SuccessResponse(c, response)
}

// GetDetections lists persisted detections for a chat
// GET /api/v1/detections/:chat_id
func (h *Handler) GetDetections(c *gin.Context) {
	chatID := c.Param("chat_id")
	if chatID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "missing chat id")
		return
	}

	limit := parseQueryInt(c, "limit", 50)
	offset := parseQueryInt(c, "offset", 0)
	if limit <= 0 || limit > 200 || offset < 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid pagination parameters")
		return
	}

	detections, err := h.service.GetDetections(c.Request.Context(), chatID, limit, offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch detections")
		return
	}

	common.SuccessResponse(c, detections)
}

// GetStats returns detection and alerting statistics
// GET /api/v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// GetRules returns the read-only keyword/brand snapshot in use
// GET /api/v1/rules
func (h *Handler) GetRules(c *gin.Context) {
	rules := h.service.Rules()
	common.SuccessResponse(c, gin.H{
		"keywords": rules.Keywords,
		"brands":   rules.Brands,
	})
}

func parseQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
