// README: Matching handlers: best match and ranked recommendations for a task.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhive/internal/modules/matching"
	"taskhive/internal/modules/task"
	"taskhive/internal/types"
)

type MatchHandler struct {
	task     *task.Service
	matching *matching.Service
}

func NewMatchHandler(taskSvc *task.Service, matchingSvc *matching.Service) *MatchHandler {
	return &MatchHandler{task: taskSvc, matching: matchingSvc}
}

func (h *MatchHandler) input(c *gin.Context) (matching.Input, bool) {
	t, err := h.task.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return matching.Input{}, false
	}
	return matching.Input{
		TaskID:      t.ID,
		Category:    t.Category,
		Location:    t.Location,
		ScheduledAt: t.ScheduledAt,
	}, true
}

// BestMatch returns the single highest-scoring doer. "No doer found" is a
// 200 with a null match, not an error.
func (h *MatchHandler) BestMatch(c *gin.Context) {
	in, ok := h.input(c)
	if !ok {
		return
	}
	best, err := h.matching.FindBestMatch(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if best == nil {
		writeJSON(c, http.StatusOK, map[string]any{"match": nil})
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"match": best})
}

func (h *MatchHandler) Recommendations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	in, ok := h.input(c)
	if !ok {
		return
	}
	matches, err := h.matching.FindBestMatches(c.Request.Context(), in, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if matches == nil {
		matches = []matching.Match{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"matches": matches})
}
