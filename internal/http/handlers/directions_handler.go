// README: Driving directions handler for the navigation map.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kolekta/internal/maps"
	"kolekta/internal/types"
)

type DirectionsHandler struct {
	routes *maps.RouteService
}

func NewDirectionsHandler(svc *maps.RouteService) *DirectionsHandler {
	return &DirectionsHandler{routes: svc}
}

// Get returns the decoded driving path between two points.
func (h *DirectionsHandler) Get(c *gin.Context) {
	if h.routes == nil {
		writeError(c, http.StatusServiceUnavailable, "directions unavailable")
		return
	}

	origin, ok := queryPoint(c, "origin_lat", "origin_lng")
	if !ok {
		return
	}
	dest, ok := queryPoint(c, "dest_lat", "dest_lng")
	if !ok {
		return
	}

	path, err := h.routes.GetPath(c.Request.Context(), origin, dest)
	if err != nil {
		writeError(c, http.StatusBadGateway, "directions lookup failed")
		return
	}
	writeJSON(c, http.StatusOK, path)
}

func queryPoint(c *gin.Context, latKey, lngKey string) (types.Point, bool) {
	lat, errLat := strconv.ParseFloat(c.Query(latKey), 64)
	lng, errLng := strconv.ParseFloat(c.Query(lngKey), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return types.Point{}, false
	}
	return types.Point{Lat: lat, Lng: lng}, true
}
