package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/mockmate/internal/services"
)

// SessionHandler exposes the persisted record of interview sessions. Live
// sessions are created by the interview websocket.
type SessionHandler struct {
	svc    services.SessionService
	events services.VoiceEventService
}

func NewSessionHandler(svc services.SessionService, events services.VoiceEventService) *SessionHandler {
	return &SessionHandler{svc: svc, events: events}
}

func (h *SessionHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.ListByUser(c.Request.Context(), userID, int64(queryLimit(c, 20, 100)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": rows})
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.GetOwned(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// VoiceEvents returns the raw voice agent traffic recorded for a session.
// Mounted behind RequireAdmin.
func (h *SessionHandler) VoiceEvents(c *gin.Context) {
	sessionID := c.Param("session_id")

	rows, err := h.events.ListBySession(c.Request.Context(), sessionID, int64(queryLimit(c, 200, 1000)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"events":     rows,
	})
}
