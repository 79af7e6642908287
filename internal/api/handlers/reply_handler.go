package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/services"
	"github.com/yoockh/mockmate/internal/utils"
)

type ReplyHandler struct {
	svc services.ReplyService
}

func NewReplyHandler(svc services.ReplyService) *ReplyHandler {
	return &ReplyHandler{svc: svc}
}

func (h *ReplyHandler) Reply(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req call.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReplyHandler.Reply", "Missing userText", err))
		return
	}

	reply, err := h.svc.Reply(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply})
}
