// README: Task handlers for create/get and lifecycle transitions.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhive/internal/modules/task"
	"taskhive/internal/types"
)

// Geocoder resolves an address to coordinates when a task body carries no
// explicit location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type TaskHandler struct {
	task     *task.Service
	geocoder Geocoder
}

// NewTaskHandler wires the task service; geocoder may be nil, in which case
// address-only submissions are rejected.
func NewTaskHandler(svc *task.Service, geocoder Geocoder) *TaskHandler {
	return &TaskHandler{task: svc, geocoder: geocoder}
}

type createTaskReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Budget      int64    `json:"budget"`
	CreatorID   string   `json:"creator_id"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Address     string   `json:"address"`
	ScheduledAt string   `json:"scheduled_at"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "scheduled_at must be RFC3339")
		return
	}

	var location types.Point
	switch {
	case req.Lat != nil && req.Lng != nil:
		location = types.Point{Lat: *req.Lat, Lng: *req.Lng}
	case req.Address != "" && h.geocoder != nil:
		location, err = h.geocoder.Geocode(c.Request.Context(), req.Address)
		if err != nil {
			writeError(c, http.StatusBadRequest, "address could not be resolved")
			return
		}
	default:
		writeError(c, http.StatusBadRequest, "location or address required")
		return
	}

	id, err := h.task.Create(c.Request.Context(), task.CreateCommand{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      types.Money{Amount: req.Budget, Currency: "RWF"},
		CreatorID:   types.ID(req.CreatorID),
		Location:    location,
		Address:     req.Address,
		ScheduledAt: scheduledAt,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"task_id": id, "status": task.StatusPending})
}

func (h *TaskHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing task id")
		return
	}
	t, err := h.task.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

type assignReq struct {
	DoerID string `json:"doer_id"`
}

func (h *TaskHandler) Assign(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil || req.DoerID == "" {
		writeError(c, http.StatusBadRequest, "doer_id required")
		return
	}
	err := h.task.Assign(c.Request.Context(), task.AssignCommand{
		TaskID: types.ID(c.Param("id")),
		DoerID: types.ID(req.DoerID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": task.StatusAssigned})
}

func (h *TaskHandler) Start(c *gin.Context) {
	err := h.task.Start(c.Request.Context(), task.StartCommand{
		TaskID: types.ID(c.Param("id")),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": task.StatusInProgress})
}

func (h *TaskHandler) Complete(c *gin.Context) {
	err := h.task.Complete(c.Request.Context(), task.CompleteCommand{
		TaskID: types.ID(c.Param("id")),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": task.StatusCompleted})
}

type cancelReq struct {
	ActorType string `json:"actor_type"`
	Reason    string `json:"reason"`
}

func (h *TaskHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	if req.ActorType == "" {
		req.ActorType = "user"
	}
	err := h.task.Cancel(c.Request.Context(), task.CancelCommand{
		TaskID:    types.ID(c.Param("id")),
		ActorType: req.ActorType,
		Reason:    req.Reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": task.StatusCancelled})
}
