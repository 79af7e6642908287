package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/services"
	"github.com/yoockh/mockmate/internal/utils"
)

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

// CreateInterviewRequest accepts techstack as either a comma separated
// string or a list. userid is ignored in favour of the token subject.
type CreateInterviewRequest struct {
	Role         string          `json:"role"`
	Type         string          `json:"type"`
	Level        string          `json:"level"`
	TechStack    json.RawMessage `json:"techstack"`
	Questions    []string        `json:"questions"`
	NumQuestions int             `json:"numQuestions"`
	UserID       string          `json:"userid"`
}

func techStackCSV(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ",")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func (h *InterviewHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Create", "invalid request body", err))
		return
	}

	id, err := h.svc.Create(c.Request.Context(), call.InterviewDraft{
		Role:         req.Role,
		Type:         req.Type,
		Level:        req.Level,
		TechStack:    techStackCSV(req.TechStack),
		Questions:    req.Questions,
		NumQuestions: req.NumQuestions,
		UserID:       userID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "interviewId": id})
}

func (h *InterviewHandler) ListMine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.ListMine(c.Request.Context(), userID, queryLimit(c, 20, 100))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": rows})
}

// ListLatest returns finalized interviews created by other users.
func (h *InterviewHandler) ListLatest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.ListLatest(c.Request.Context(), userID, queryLimit(c, 20, 100))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": rows})
}

func (h *InterviewHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	iv, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *InterviewHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
