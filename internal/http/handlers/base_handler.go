// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kolekta/internal/modules/route"
	"kolekta/internal/modules/session"
	"kolekta/internal/modules/zone"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeRetryable marks upstream failures the client may simply try again.
func writeRetryable(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Retryable: true})
}

func writeRouteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, route.ErrBadRequest), errors.Is(err, route.ErrMissingRemarks):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, route.ErrNotFound), errors.Is(err, route.ErrSegmentNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, route.ErrNotActiveSegment),
		errors.Is(err, route.ErrInvalidState),
		errors.Is(err, route.ErrRouteFinished):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, route.ErrFetchFailed),
		errors.Is(err, route.ErrPersistFailed),
		errors.Is(err, route.ErrWasteCaptureFailed),
		errors.Is(err, route.ErrScheduleCompletion):
		writeRetryable(c, http.StatusBadGateway, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeZoneError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, zone.ErrZoneNotFound), errors.Is(err, zone.ErrNoReport):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, zone.ErrSubmissionClosed), errors.Is(err, zone.ErrAlreadySegregated):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusBadGateway, "zone report unavailable")
	}
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrBadCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrNoSession):
		writeError(c, http.StatusUnauthorized, "invalid session")
	default:
		writeError(c, http.StatusBadGateway, "login unavailable")
	}
}
