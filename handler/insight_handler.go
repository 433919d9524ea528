package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/finsight-be/types"
)

type InsightExtractor interface {
	Extract(ctx context.Context, documentID string) (*types.Insights, error)
}

type InsightHandler struct {
	extractor InsightExtractor
}

func NewInsightHandler(extractor InsightExtractor) *InsightHandler {
	return &InsightHandler{
		extractor: extractor,
	}
}

func (h *InsightHandler) HandleInsights(c *gin.Context) {
	var req types.InsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PdfID == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "pdf_id is required"})
		return
	}

	insights, err := h.extractor.Extract(c.Request.Context(), req.PdfID)
	if err != nil {
		writeError(c, err, "Invalid pdf_id")
		return
	}
	if insights == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, insights)
}
