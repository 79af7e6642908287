package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
	"github.com/yoockh/mockmate/internal/services"
	"github.com/yoockh/mockmate/internal/utils"
)

const (
	generateParam = "generate"

	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsCloseTimeout = 15 * time.Second
)

type InterviewWSDeps struct {
	Sessions   services.SessionService
	Interviews services.InterviewService
	Profiles   services.ProfileService
	Convos     services.ConversationService
	Feedback   services.FeedbackService
	Replies    services.ReplyService

	Agent voice.Agent
	Guard call.HandoffGuard // optional
	Redis *redis.Client     // optional; carries webhook events to this socket

	Options        call.Options
	AllowedOrigins []string
	Logger         *logrus.Entry
}

// InterviewWSHandler runs one interview session per websocket.
type InterviewWSHandler struct {
	d        InterviewWSDeps
	upgrader websocket.Upgrader
}

func NewInterviewWSHandler(d InterviewWSDeps) *InterviewWSHandler {
	if d.Logger == nil {
		d.Logger = logrus.NewEntry(logrus.New())
	}
	return &InterviewWSHandler{
		d: d,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(d.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]struct{}{}
	for _, o := range allowed {
		if o = strings.TrimSpace(o); o != "" {
			set[o] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		if _, all := set["*"]; all || len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type wsClientMsg struct {
	Type string `json:"type"`

	// send_text
	Text string `json:"text,omitempty"`

	// create_interview
	Form *call.ProvisionForm `json:"form,omitempty"`

	// voice_event
	Event *voice.ClientEvent `json:"event,omitempty"`
}

type wsServerMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`

	State *call.State `json:"state,omitempty"`

	Role    models.Role `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`
	Source  string      `json:"source,omitempty"`
	Seq     int         `json:"seq,omitempty"`

	To   string `json:"to,omitempty"`
	Open *bool  `json:"open,omitempty"`

	InterviewID string `json:"interview_id,omitempty"`
	Link        string `json:"link,omitempty"`

	CallID  string `json:"call_id,omitempty"`
	JoinURL string `json:"join_url,omitempty"`

	Code    utils.Code `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// wsSink forwards controller notifications to the client.
type wsSink struct {
	conn *wsConn
	log  *logrus.Entry
}

func (s *wsSink) send(m wsServerMsg) {
	if err := s.conn.writeJSON(m); err != nil {
		s.log.WithError(err).WithField("type", m.Type).Debug("websocket write failed")
	}
}

func (s *wsSink) StateChanged(st call.State) { s.send(wsServerMsg{Type: "state", State: &st}) }

func (s *wsSink) TurnAppended(t models.Turn, seq int, src call.TurnSource) {
	s.send(wsServerMsg{Type: "turn", Role: t.Role, Content: t.Content, Source: string(src), Seq: seq})
}

func (s *wsSink) CallJoined(c voice.Call) {
	s.send(wsServerMsg{Type: "call", CallID: c.ID, JoinURL: c.JoinURL})
}

func (s *wsSink) ProvisioningRequested() {
	open := true
	s.send(wsServerMsg{Type: "provisioning", Open: &open})
}

func (s *wsSink) ProvisioningFailed(msg string) {
	s.send(wsServerMsg{Type: "provisioning_failed", Message: msg})
}

func (s *wsSink) InterviewReady(id string) {
	s.send(wsServerMsg{Type: "interview_ready", InterviewID: id, Link: "/interview/" + id})
}

func (s *wsSink) Navigate(path string) { s.send(wsServerMsg{Type: "navigate", To: path}) }

func (s *wsSink) error(err error) {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		s.send(wsServerMsg{Type: "error", Code: ae.Code, Message: ae.Message})
		return
	}
	s.send(wsServerMsg{Type: "error", Code: sessionErrorCode(err), Message: err.Error()})
}

// sessionErrorCode maps controller errors onto API codes.
func sessionErrorCode(err error) utils.Code {
	switch {
	case errors.Is(err, call.ErrEmptyText), errors.Is(err, call.ErrTextTooLong), errors.Is(err, call.ErrInvalidForm):
		return utils.CodeInvalidArgument
	case errors.Is(err, call.ErrSessionBusy), errors.Is(err, call.ErrProvisioningInFlight):
		return utils.CodeConflict
	case errors.Is(err, call.ErrNotActive), errors.Is(err, call.ErrSessionFinished), errors.Is(err, call.ErrNotGenerateMode):
		return utils.CodeFailedPrecondition
	case errors.Is(err, call.ErrStartFailed), errors.Is(err, call.ErrProvisioningFailed):
		return utils.CodeUnavailable
	}
	return utils.CodeInternal
}

// Serve upgrades GET /ws/interview/:interview_id. The literal id "generate"
// runs the generate flow; ?feedback_id= overwrites an existing feedback.
func (h *InterviewWSHandler) Serve(c *gin.Context) {
	const op = "InterviewWSHandler.Serve"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	setup := call.Setup{
		UserID:     userID,
		Mode:       call.ModeFixed,
		FeedbackID: c.Query("feedback_id"),
	}
	if id := c.Param("interview_id"); id == generateParam {
		setup.Mode = call.ModeGenerate
	} else {
		iv, err := h.d.Interviews.Get(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		setup.InterviewID = iv.ID
		setup.Role = iv.Role
		setup.Type = iv.Type
		setup.Level = iv.Level
		setup.TechStack = []string(iv.TechStack)
		setup.Questions = []string(iv.Questions)
		setup.NumQuestions = iv.NumQuestions
	}
	setup.Username = services.DisplayName(ctx, h.d.Profiles, userID)

	sess, err := h.d.Sessions.Start(ctx, userID, string(setup.Mode), setup.InterviewID, setup.FeedbackID)
	if err != nil {
		writeError(c, err)
		return
	}
	setup.SessionID = sess.SessionID

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.d.Logger.WithError(err).Warn("websocket upgrade failed")
		if _, err := h.d.Sessions.End(context.Background(), sess.SessionID); err != nil {
			h.d.Logger.WithError(err).Warn("failed to close orphan session")
		}
		_ = c.Error(utils.E(utils.CodeInvalidArgument, op, "websocket upgrade failed", err))
		return
	}
	defer conn.Close()

	log := h.d.Logger.WithFields(logrus.Fields{
		"session_id": sess.SessionID,
		"user_id":    userID,
		"mode":       setup.Mode,
	})
	h.run(&wsConn{c: conn}, setup, sess, log)
}

func (h *InterviewWSHandler) run(wc *wsConn, setup call.Setup, sess *models.Session, log *logrus.Entry) {
	sink := &wsSink{conn: wc, log: log}
	recorder := services.NewSessionRecorder(h.d.Sessions, h.d.Convos, sess, log)

	opts := h.d.Options
	opts.Logger = log
	ctrl := call.NewController(setup, call.Deps{
		Agent:      h.d.Agent,
		Feedback:   h.d.Feedback,
		Replies:    h.d.Replies,
		Interviews: h.d.Interviews,
		Guard:      h.d.Guard,
		Observer:   call.Observers{sink, recorder},
	}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	var tasks sync.WaitGroup
	defer func() {
		cancel()
		closeCtx, done := context.WithTimeout(context.Background(), wsCloseTimeout)
		defer done()

		ctrl.Discard(closeCtx)
		tasks.Wait()
		ctrl.Wait()
		recorder.Close()
		if _, err := h.d.Sessions.End(closeCtx, setup.SessionID); err != nil {
			log.WithError(err).Warn("failed to end session")
		}
		log.Info("interview websocket closed")
	}()

	snap := ctrl.Snapshot()
	sink.send(wsServerMsg{Type: "state", SessionID: setup.SessionID, State: &snap})
	log.Info("interview websocket opened")

	if h.d.Redis != nil {
		pubsub := h.d.Redis.Subscribe(ctx, VoiceChannel(setup.SessionID))
		defer pubsub.Close()
		tasks.Add(1)
		go func() {
			defer tasks.Done()
			h.forwardVoiceEvents(ctx, pubsub.Channel(), ctrl, log)
		}()
	}

	tasks.Add(1)
	go func() {
		defer tasks.Done()
		t := time.NewTicker(wsPingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := wc.ping(); err != nil {
					return
				}
			}
		}
	}()

	h.readLoop(ctx, wc, ctrl, sink, &tasks, log)
}

func (h *InterviewWSHandler) forwardVoiceEvents(ctx context.Context, ch <-chan *redis.Message, ctrl *call.Controller, log *logrus.Entry) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var ev voice.Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				log.WithError(err).Warn("invalid voice event payload")
				continue
			}
			ctrl.HandleEvent(ev)
		}
	}
}

func (h *InterviewWSHandler) readLoop(ctx context.Context, wc *wsConn, ctrl *call.Controller, sink *wsSink, tasks *sync.WaitGroup, log *logrus.Entry) {
	conn := wc.c
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	// start and create_interview wait on the network; run them off the read
	// loop so end and cancel_provisioning stay responsive.
	async := func(f func()) {
		tasks.Add(1)
		go func() {
			defer tasks.Done()
			f()
		}()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("websocket read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			sink.send(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "start":
			async(func() {
				if _, err := ctrl.Start(ctx); err != nil {
					sink.error(err)
				}
			})

		case "end":
			if err := ctrl.End(ctx); err != nil {
				sink.error(err)
			}

		case "send_text":
			if err := ctrl.SendText(ctx, msg.Text); err != nil {
				sink.error(err)
			}

		case "create_interview":
			var form call.ProvisionForm
			if msg.Form != nil {
				form = *msg.Form
			}
			async(func() {
				if _, err := ctrl.Provision(ctx, form); err != nil && !errors.Is(err, call.ErrProvisioningFailed) {
					sink.error(err)
				}
			})

		case "cancel_provisioning":
			ctrl.CancelProvisioning()

		case "voice_event":
			if msg.Event == nil {
				sink.send(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "event is required"})
				continue
			}
			ev, ok, err := voice.DecodeClientEvent(*msg.Event)
			if err != nil {
				sink.send(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: err.Error()})
				continue
			}
			if ok {
				ctrl.HandleEvent(ev)
			}

		case "ping":
			sink.send(wsServerMsg{Type: "pong"})

		default:
			sink.send(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
		}
	}
}
