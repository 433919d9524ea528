package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/finsight-be/middleware"
	"github.com/tieubaoca/finsight-be/service"
	"github.com/tieubaoca/finsight-be/types"
)

type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
	}
}

func (h *FileHandler) HandleList(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)
	files, err := h.fileService.ListFiles(c.Request.Context(), session.UserID)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, types.FilesResponse{UserID: session.UserID, Files: files})
}

func (h *FileHandler) HandleDownload(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)
	filename := c.Param("filename")

	body, err := h.fileService.Download(c.Request.Context(), session.UserID, filename)
	if err != nil {
		writeError(c, err, "File not found")
		return
	}
	defer body.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		_ = c.Error(err)
	}
}
