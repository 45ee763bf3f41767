// README: Truck location report handler.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kolekta/internal/modules/location"
	"kolekta/internal/types"
)

type LocationHandler struct {
	location *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{location: svc}
}

type locationReq struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// Update reports the truck's current position. Fixes are fanned out to the
// live-tracking channel and queued locally when the publish fails.
func (h *LocationHandler) Update(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	fix := location.Fix{
		TruckID:  types.ID(c.Param("truckID")),
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	}
	if req.RecordedAt != nil {
		fix.RecordedAt = *req.RecordedAt
	}

	if err := h.location.Report(c.Request.Context(), fix); err != nil {
		if errors.Is(err, location.ErrBadFix) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}

// Latest returns the truck's most recent known fix.
func (h *LocationHandler) Latest(c *gin.Context) {
	fix, err := h.location.Latest(c.Request.Context(), types.ID(c.Param("truckID")))
	if err != nil {
		if errors.Is(err, location.ErrNoFix) {
			writeError(c, http.StatusNotFound, err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, fix)
}
