package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/internal/providers/voice"
	"github.com/yoockh/mockmate/internal/services"
	"github.com/yoockh/mockmate/internal/utils"
)

const maxWebhookBody = 1 << 20

// VoiceChannel is the pub/sub channel carrying normalized voice events for
// one session, from whichever instance received the webhook to the one
// holding the websocket.
func VoiceChannel(sessionID string) string { return "session:" + sessionID + ":voice" }

// Publisher is satisfied by *redis.Client.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type WebhookHandler struct {
	secret string
	events services.VoiceEventService
	pub    Publisher
	log    *logrus.Entry
}

func NewWebhookHandler(secret string, events services.VoiceEventService, pub Publisher, log *logrus.Entry) *WebhookHandler {
	return &WebhookHandler{secret: secret, events: events, pub: pub, log: log}
}

// Voice receives Vapi server messages. Calls are matched to sessions through
// the session_id placed in call metadata at start. Without a configured
// secret every message is rejected.
func (h *WebhookHandler) Voice(c *gin.Context) {
	const op = "WebhookHandler.Voice"

	got := c.GetHeader("X-Vapi-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		writeError(c, utils.E(utils.CodeUnauthorized, op, "invalid webhook secret", nil))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read body", err))
		return
	}
	msg, err := voice.ParseServerMessage(body)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid server message", err))
		return
	}

	log := h.log.WithFields(logrus.Fields{
		"type":       msg.Type,
		"call_id":    msg.CallID,
		"session_id": msg.SessionID,
	})
	if msg.SessionID == "" {
		log.Debug("server message without session metadata")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.events != nil {
		if err := h.events.Record(ctx, msg.SessionID, msg.CallID, msg.Type, body); err != nil {
			log.WithError(err).Warn("failed to record voice event")
		}
	}
	for _, ev := range msg.Events {
		b, _ := json.Marshal(ev)
		if err := h.pub.Publish(ctx, VoiceChannel(msg.SessionID), string(b)).Err(); err != nil {
			log.WithError(err).Error("failed to publish voice event")
			writeError(c, utils.E(utils.CodeUnavailable, op, "failed to forward event", err))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
