package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/finsight-be/service"
	"github.com/tieubaoca/finsight-be/types"
)

type ChatHandler struct {
	answerer service.Answerer
}

func NewChatHandler(answerer service.Answerer) *ChatHandler {
	return &ChatHandler{
		answerer: answerer,
	}
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.PdfID == "" || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "pdf_id and question are required"})
		return
	}

	answer, err := h.answerer.Answer(c.Request.Context(), req.PdfID, req.Question)
	if err != nil {
		writeError(c, err, "Invalid pdf_id")
		return
	}
	c.JSON(http.StatusOK, types.ChatResponse{Answer: answer})
}
