// README: Weekly zone segregation handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kolekta/internal/modules/zone"
	"kolekta/internal/types"
)

type ZoneHandler struct {
	zone *zone.Service
}

func NewZoneHandler(svc *zone.Service) *ZoneHandler {
	return &ZoneHandler{zone: svc}
}

func (h *ZoneHandler) Weekly(c *gin.Context) {
	report, err := h.zone.Weekly(c.Request.Context())
	if err != nil {
		writeZoneError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, report)
}

type segregateReq struct {
	ZoneReportID string `json:"zone_report_id"`
}

func (h *ZoneHandler) Segregate(c *gin.Context) {
	var req segregateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ZoneReportID == "" {
		writeError(c, http.StatusBadRequest, "missing zone report id")
		return
	}
	if err := h.zone.MarkSegregated(c.Request.Context(), types.ID(req.ZoneReportID)); err != nil {
		writeZoneError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"segregated": true})
}
