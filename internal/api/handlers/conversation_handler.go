package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/services"
)

type ConversationHandler struct {
	svc services.ConversationService
}

func NewConversationHandler(svc services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// ListBySession returns the stored turns of a session in order. With
// ?format=text the turns are rendered as "role: content" lines instead.
func (h *ConversationHandler) ListBySession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("session_id")

	if c.Query("format") == "text" {
		turns, err := h.svc.Transcript(c.Request.Context(), userID, sessionID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.String(http.StatusOK, call.FormatContext(turns))
		return
	}

	rows, err := h.svc.ListBySession(c.Request.Context(), userID, sessionID, queryLimit(c, 200, 1000))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"conversations": rows,
	})
}

// Search returns the caller's past turns closest in meaning to ?q=.
func (h *ConversationHandler) Search(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	q := c.Query("q")

	rows, err := h.svc.Search(c.Request.Context(), userID, q, queryLimit(c, 5, 20))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":         q,
		"conversations": rows,
	})
}
