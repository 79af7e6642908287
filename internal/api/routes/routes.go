package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/mockmate/internal/api/handlers"
	"github.com/yoockh/mockmate/internal/api/middleware"
)

type Deps struct {
	JWT middleware.JWTConfig

	Interview    *handlers.InterviewHandler
	Feedback     *handlers.FeedbackHandler
	Reply        *handlers.ReplyHandler
	Resume       *handlers.ResumeHandler
	Session      *handlers.SessionHandler
	Profile      *handlers.ProfileHandler
	Conversation *handlers.ConversationHandler
	Webhook      *handlers.WebhookHandler
	InterviewWS  *handlers.InterviewWSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Vapi authenticates with a shared secret, not a user token.
	r.POST("/webhooks/voice", d.Webhook.Voice)

	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWT))

	auth.POST("/interviews/create", d.Interview.Create)
	auth.GET("/interviews", d.Interview.ListMine)
	auth.GET("/interviews/latest", d.Interview.ListLatest)
	auth.GET("/interviews/:id", d.Interview.Get)
	auth.DELETE("/interviews/:id", d.Interview.Delete)
	auth.GET("/interviews/:id/feedback", d.Feedback.GetForInterview)

	auth.POST("/feedback", d.Feedback.Create)
	auth.POST("/chat-reply", d.Reply.Reply)

	auth.POST("/resumes", d.Resume.Upload)
	auth.GET("/resumes", d.Resume.List)
	auth.GET("/resumes/:id", d.Resume.Get)
	auth.POST("/resumes/:id/cover-letter", d.Resume.CoverLetter)

	auth.GET("/sessions", d.Session.List)
	auth.GET("/sessions/:session_id", d.Session.Get)
	auth.GET("/conversation/:session_id", d.Conversation.ListBySession)
	auth.GET("/conversations/search", d.Conversation.Search)

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile/update", d.Profile.Update)

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/sessions/:session_id/voice-events", d.Session.VoiceEvents)

	// WebSocket
	auth.GET("/ws/interview/:interview_id", d.InterviewWS.Serve)
}
