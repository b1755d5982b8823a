// README: Doer handlers: registration, location sharing, availability.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhive/internal/modules/doer"
	"taskhive/internal/types"
)

type DoerHandler struct {
	doer *doer.Service
}

func NewDoerHandler(svc *doer.Service) *DoerHandler {
	return &DoerHandler{doer: svc}
}

type registerDoerReq struct {
	FullName        string                 `json:"full_name"`
	ProfilePhoto    string                 `json:"profile_photo"`
	Lat             float64                `json:"lat"`
	Lng             float64                `json:"lng"`
	Services        []doer.ServiceOffering `json:"services"`
	Schedule        []doer.ScheduleEntry   `json:"schedule"`
	ServiceRadiusKm float64                `json:"service_radius_km"`
	HourlyRate      int64                  `json:"hourly_rate"`
}

func (h *DoerHandler) Register(c *gin.Context) {
	var req registerDoerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.doer.Register(c.Request.Context(), doer.RegisterCommand{
		FullName:        req.FullName,
		ProfilePhoto:    req.ProfilePhoto,
		Location:        types.Point{Lat: req.Lat, Lng: req.Lng},
		Services:        req.Services,
		Schedule:        req.Schedule,
		ServiceRadiusKm: req.ServiceRadiusKm,
		HourlyRate:      req.HourlyRate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"doer_id": id})
}

func (h *DoerHandler) Get(c *gin.Context) {
	d, err := h.doer.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, d)
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *DoerHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.doer.UpdateLocation(c.Request.Context(), types.ID(c.Param("id")), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}

type updateAvailabilityReq struct {
	Status   string               `json:"status"`
	Schedule []doer.ScheduleEntry `json:"schedule"`
}

func (h *DoerHandler) UpdateAvailability(c *gin.Context) {
	var req updateAvailabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	if req.Status != "" {
		if err := h.doer.SetAvailabilityStatus(c.Request.Context(), id, doer.AvailabilityStatus(req.Status)); err != nil {
			writeServiceError(c, err)
			return
		}
	}
	if req.Schedule != nil {
		if err := h.doer.UpdateSchedule(c.Request.Context(), id, req.Schedule); err != nil {
			writeServiceError(c, err)
			return
		}
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}
