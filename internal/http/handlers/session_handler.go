// README: Session handlers: login and logout.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kolekta/internal/backend"
	"kolekta/internal/modules/session"
)

type SessionHandler struct {
	session *session.Service
}

func NewSessionHandler(svc *session.Service) *SessionHandler {
	return &SessionHandler{session: svc}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *SessionHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, "missing credentials")
		return
	}

	deviceID, creds, err := h.session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"device_id": deviceID,
		"token":     creds.Token,
		"user":      creds.User,
	})
}

func (h *SessionHandler) Logout(c *gin.Context) {
	token, err := backend.ContextToken(c.Request.Context())
	if err != nil || token == "" {
		writeError(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := h.session.LogoutByToken(c.Request.Context(), token); err != nil {
		writeSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
