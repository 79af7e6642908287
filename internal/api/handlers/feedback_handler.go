package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/services"
	"github.com/yoockh/mockmate/internal/utils"
)

type FeedbackHandler struct {
	svc services.FeedbackService
}

func NewFeedbackHandler(svc services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type CreateFeedbackRequest struct {
	InterviewID string        `json:"interviewId" binding:"required"`
	Transcript  []models.Turn `json:"transcript" binding:"required"`
	FeedbackID  string        `json:"feedbackId"`
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FeedbackHandler.Create", "invalid request body", err))
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), call.FeedbackRequest{
		InterviewID: req.InterviewID,
		UserID:      userID,
		Transcript:  req.Transcript,
		FeedbackID:  req.FeedbackID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FeedbackHandler) GetForInterview(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	f, err := h.svc.GetForInterview(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}
