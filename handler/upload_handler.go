package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/finsight-be/middleware"
	"github.com/tieubaoca/finsight-be/service"
	"github.com/tieubaoca/finsight-be/types"
)

type UploadHandler struct {
	fileService *service.FileService
}

func NewUploadHandler(fileService *service.FileService) *UploadHandler {
	return &UploadHandler{
		fileService: fileService,
	}
}

func (h *UploadHandler) UploadDocumentHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadSize+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "No file part"})
		return
	}
	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "No selected file"})
		return
	}

	owner := types.AnonymousOwner
	if session, ok := middleware.SessionFromContext(c); ok {
		owner = session.UserID
	}

	id, err := h.fileService.UploadFile(c.Request.Context(), owner, header)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, types.UploadResponse{
		Message: "PDF uploaded and indexed successfully",
		PdfID:   id,
	})
}
