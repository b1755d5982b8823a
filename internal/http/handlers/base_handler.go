// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhive/internal/modules/doer"
	"taskhive/internal/modules/matching"
	"taskhive/internal/modules/task"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrBadRequest), errors.Is(err, doer.ErrBadRequest), errors.Is(err, matching.ErrInvalidTask):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrNotFound), errors.Is(err, doer.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, task.ErrInvalidState), errors.Is(err, task.ErrConflict), errors.Is(err, task.ErrDoerBusy):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
