package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/finsight-be/types"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {"error": msg}. Not-found errors use notFoundMsg
// when it is set.
func writeError(c *gin.Context, err error, notFoundMsg string) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusNotFound && notFoundMsg != "" {
		msg = notFoundMsg
	}
	c.JSON(status, types.ErrorResponse{Error: msg})
}
