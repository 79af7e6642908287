package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
)

const recorderQueue = 256

// SessionRecorder persists what a live session produces: status changes,
// the call id and every transcript turn. Writes run in order on one
// goroutine so the event path never waits on the databases.
type SessionRecorder struct {
	call.NopObserver

	sessions SessionService
	convos   ConversationService
	log      *logrus.Entry

	sessionID   string
	userID      string
	interviewID string

	mu          sync.Mutex
	lastStatus  call.Status
	lastVersion uint64
	finished    bool
	closed      bool

	ops  chan func(context.Context)
	done chan struct{}
}

func NewSessionRecorder(sessions SessionService, convos ConversationService, s *models.Session, log *logrus.Entry) *SessionRecorder {
	r := &SessionRecorder{
		sessions:    sessions,
		convos:      convos,
		log:         log.WithField("session_id", s.SessionID),
		sessionID:   s.SessionID,
		userID:      s.UserID,
		interviewID: s.InterviewID,
		lastStatus:  call.Status(s.Status),
		finished:    call.Status(s.Status) == call.StatusFinished,
		ops:         make(chan func(context.Context), recorderQueue),
		done:        make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *SessionRecorder) run() {
	defer close(r.done)
	for op := range r.ops {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		op(ctx)
		cancel()
	}
}

func (r *SessionRecorder) enqueue(op func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ops <- op:
	default:
		r.log.Warn("session recorder queue full; dropping write")
	}
}

// Close flushes pending writes.
func (r *SessionRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ops)
	r.mu.Unlock()
	<-r.done
}

// StateChanged persists status changes. States older than the last one seen
// are dropped, and nothing overwrites a finished session.
func (r *SessionRecorder) StateChanged(s call.State) {
	r.mu.Lock()
	if r.finished || s.Version <= r.lastVersion {
		r.mu.Unlock()
		return
	}
	r.lastVersion = s.Version
	changed := s.Status != r.lastStatus
	r.lastStatus = s.Status
	r.finished = s.Status == call.StatusFinished
	r.mu.Unlock()
	if !changed {
		return
	}

	status := string(s.Status)
	r.enqueue(func(ctx context.Context) {
		if s.Status == call.StatusFinished {
			if _, err := r.sessions.End(ctx, r.sessionID); err != nil {
				r.log.WithError(err).Warn("failed to end session")
			}
			return
		}
		if err := r.sessions.SetStatus(ctx, r.sessionID, status); err != nil {
			r.log.WithError(err).Warn("failed to persist session status")
		}
	})
}

func (r *SessionRecorder) CallJoined(c voice.Call) {
	r.enqueue(func(ctx context.Context) {
		if err := r.sessions.AttachCall(ctx, r.sessionID, c.ID, ""); err != nil {
			r.log.WithError(err).Warn("failed to attach call")
		}
	})
}

func (r *SessionRecorder) InterviewReady(interviewID string) {
	r.enqueue(func(ctx context.Context) {
		s, err := r.sessions.Get(ctx, r.sessionID)
		if err != nil {
			r.log.WithError(err).Warn("failed to load session")
			return
		}
		if err := r.sessions.AttachCall(ctx, r.sessionID, s.CallID, interviewID); err != nil {
			r.log.WithError(err).Warn("failed to attach interview")
		}
	})
}

func (r *SessionRecorder) TurnAppended(turn models.Turn, seq int, source call.TurnSource) {
	r.enqueue(func(ctx context.Context) {
		_, err := r.convos.Append(ctx, TurnRecord{
			UserID:    r.userID,
			SessionID: r.sessionID,
			Seq:       seq,
			Role:      string(turn.Role),
			Content:   turn.Content,
			Source:    string(source),
		})
		if err != nil {
			r.log.WithError(err).WithField("seq", seq).Warn("failed to persist turn")
		}
	})
}
