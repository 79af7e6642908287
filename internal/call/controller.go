package call

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/internal/logger"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
)

const (
	defaultFallbackDelay = 2 * time.Second
	defaultTickInterval  = time.Second
	handoffTimeout       = 90 * time.Second
	fallbackTimeout      = 30 * time.Second
)

// Setup describes the interview a session runs.
type Setup struct {
	SessionID    string
	UserID       string
	Username     string
	Mode         Mode
	InterviewID  string // generate mode: empty until provisioned
	FeedbackID   string // overwrite an existing feedback record
	Role         string
	Type         string
	Level        string
	TechStack    []string
	Questions    []string
	NumQuestions int
}

type Options struct {
	InterviewerID string // assistant used for fixed interviews
	WorkflowID    string // workflow used by the generate flow
	FallbackDelay time.Duration
	TickInterval  time.Duration
	Clock         Clock
	Logger        *logrus.Entry
}

type Deps struct {
	Agent      voice.Agent
	Feedback   FeedbackGenerator
	Replies    ReplyGenerator
	Interviews InterviewCreator
	Guard      HandoffGuard // optional
	Observer   Observer
}

type StartOutcome int

const (
	OutcomeNone StartOutcome = iota
	OutcomeStarted
	OutcomeProvisioning
)

// Controller owns the lifecycle of one interview session. All mutation of
// State happens under mu; collaborators are called with mu released and
// observers are notified in version order.
type Controller struct {
	setup Setup
	opts  Options
	deps  Deps
	clock Clock
	log   *logrus.Entry

	transcript *Transcript

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	notes  *sequencer

	mu       sync.Mutex
	state    State
	timerGen uint64
	ticker   Timer
	pending  []Timer
}

func NewController(setup Setup, deps Deps, opts Options) *Controller {
	if opts.FallbackDelay <= 0 {
		opts.FallbackDelay = defaultFallbackDelay
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Component(nil, "call")
	}
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	if setup.Mode == "" {
		setup.Mode = ModeFixed
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		setup:      setup,
		opts:       opts,
		deps:       deps,
		clock:      opts.Clock,
		log:        opts.Logger.WithField("session_id", setup.SessionID),
		transcript: NewTranscript(),
		ctx:        ctx,
		cancel:     cancel,
		notes:      newSequencer(),
		state: State{
			Status:      StatusInactive,
			Elapsed:     FormatElapsed(0),
			InterviewID: setup.InterviewID,
		},
	}
}

func (c *Controller) SessionID() string { return c.setup.SessionID }

func (c *Controller) Mode() Mode { return c.setup.Mode }

// Transcript returns the ordered turns recorded so far.
func (c *Controller) Transcript() []models.Turn { return c.transcript.All() }

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Start begins a call. In generate mode without a provisioned interview it
// opens the provisioning form instead and issues no start call.
func (c *Controller) Start(ctx context.Context) (StartOutcome, error) {
	c.mu.Lock()
	if err := c.startableLocked(); err != nil {
		c.mu.Unlock()
		return OutcomeNone, err
	}

	if c.setup.Mode == ModeGenerate && c.state.InterviewID == "" {
		c.state.ProvisioningOpen = true
		snap := c.bumpLocked()
		c.mu.Unlock()

		c.notes.deliver(snap.Version, func() {
			c.deps.Observer.ProvisioningRequested()
			c.deps.Observer.StateChanged(snap)
		})
		return OutcomeProvisioning, nil
	}

	return c.connectLocked(ctx, c.startRequestLocked())
}

func (c *Controller) startableLocked() error {
	switch {
	case c.state.discarded, c.state.Status == StatusFinished:
		return ErrSessionFinished
	case c.state.Status.Live():
		return ErrSessionBusy
	}
	return nil
}

// connectLocked moves to CONNECTING and issues exactly one start call.
// It must be entered with mu held and returns with mu released.
func (c *Controller) connectLocked(ctx context.Context, req voice.StartRequest) (StartOutcome, error) {
	tr, _ := c.transitionLocked(StatusConnecting)
	c.mu.Unlock()
	c.after(tr)

	log := c.log.WithField("agent_id", req.AgentID)
	log.Info("starting call")

	handle, err := c.deps.Agent.Start(ctx, req)
	if err != nil {
		log.WithError(err).Error("voice agent start failed")
		c.apply(StatusFinished)
		return OutcomeNone, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	c.mu.Lock()
	c.state.Call = handle
	stop := c.state.stopRequested || c.state.discarded
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.log.WithField("call_id", handle.ID).Info("call created")
	if stop {
		// ended or discarded while the start call was in flight
		c.notes.deliver(snap.Version, nil)
		c.stopRemote(handle)
		return OutcomeStarted, nil
	}
	c.notes.deliver(snap.Version, func() {
		c.deps.Observer.CallJoined(handle)
		c.deps.Observer.StateChanged(snap)
	})
	return OutcomeStarted, nil
}

// End finishes the session locally and asks the agent to stop the call.
// Calling it when no call is live has no effect.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	if c.state.discarded || !c.state.Status.Live() {
		c.mu.Unlock()
		return nil
	}
	tr, _ := c.transitionLocked(StatusFinished)
	c.state.stopRequested = true
	handle := c.state.Call
	c.mu.Unlock()

	c.after(tr)
	if handle.ID != "" {
		if err := c.deps.Agent.Stop(ctx, handle); err != nil {
			c.log.WithError(err).Warn("voice agent stop failed")
		}
	}
	return nil
}

// Discard drops the session without a feedback hand-off, stopping any live
// call. Used when the client goes away.
func (c *Controller) Discard(ctx context.Context) {
	c.mu.Lock()
	if c.state.discarded {
		c.mu.Unlock()
		return
	}
	c.state.discarded = true
	c.state.handedOff = true
	live := c.state.Status.Live() && !c.state.stopRequested
	c.state.stopRequested = true
	handle := c.state.Call
	c.stopTimersLocked()
	c.mu.Unlock()

	if live && handle.ID != "" {
		c.stopRemote(handle)
	}
	c.cancel()
}

// Wait blocks until background hand-off work has finished.
func (c *Controller) Wait() { c.wg.Wait() }

// HandleEvent applies one voice agent event. Events that do not fit the
// current state are ignored.
func (c *Controller) HandleEvent(ev voice.Event) {
	switch ev.Kind {
	case voice.EventCallStart:
		c.apply(StatusActive)
	case voice.EventCallEnd:
		c.apply(StatusFinished)
	case voice.EventTranscript:
		c.onTranscript(ev)
	case voice.EventMessage:
		c.onMessage(ev)
	case voice.EventSpeechStart, voice.EventSpeechEnd:
		c.onSpeech(ev)
	case voice.EventError:
		c.log.WithField("detail", ev.Error).Warn("voice agent error")
	default:
		c.log.WithField("kind", ev.Kind).Debug("unhandled voice event")
	}
}

func (c *Controller) apply(to Status) {
	c.mu.Lock()
	if c.state.discarded {
		c.mu.Unlock()
		return
	}
	tr, ok := c.transitionLocked(to)
	c.mu.Unlock()
	if !ok {
		c.log.WithFields(logrus.Fields{"from": tr.from, "to": to}).Debug("ignored transition")
		return
	}
	c.after(tr)
}

func (c *Controller) onTranscript(ev voice.Event) {
	c.mu.Lock()
	if c.state.discarded || !c.state.Status.Live() {
		c.mu.Unlock()
		return
	}

	text := strings.TrimSpace(ev.Text)
	var (
		appended *models.Turn
		seq      int
	)
	if ev.Role == models.RoleUser {
		c.state.UserSpeaking = !ev.Final()
	}
	if ev.Final() && text != "" {
		turn := models.Turn{Role: ev.Role, Content: text}
		seq = c.transcript.Append(turn)
		appended = &turn
	}
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notes.deliver(snap.Version, func() {
		if appended != nil {
			c.deps.Observer.TurnAppended(*appended, seq, SourceVoice)
		}
		c.deps.Observer.StateChanged(snap)
	})
}

func (c *Controller) onMessage(ev voice.Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	role := ev.Role
	if role == "" {
		role = models.RoleAssistant
	}

	c.mu.Lock()
	if c.state.discarded || !c.state.Status.Live() {
		c.mu.Unlock()
		return
	}
	turn := models.Turn{Role: role, Content: text}
	seq := c.transcript.Append(turn)
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notes.deliver(snap.Version, func() {
		c.deps.Observer.TurnAppended(turn, seq, SourceVoice)
		c.deps.Observer.StateChanged(snap)
	})
}

func (c *Controller) onSpeech(ev voice.Event) {
	if ev.Role != "" && ev.Role != models.RoleAssistant {
		return
	}

	c.mu.Lock()
	if c.state.discarded {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	if ev.Kind == voice.EventSpeechStart {
		c.state.AgentSpeaking = true
		c.state.LastSpeechStart = now
	} else {
		c.state.AgentSpeaking = false
		c.state.LastSpeechEnd = now
	}
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notes.deliver(snap.Version, func() { c.deps.Observer.StateChanged(snap) })
}

type transition struct {
	from, to Status
	snap     State
	handoff  bool
	turns    []models.Turn
}

// transitionLocked applies from -> to with its entry and exit actions.
func (c *Controller) transitionLocked(to Status) (transition, bool) {
	from := c.state.Status
	if !CanTransition(from, to) {
		return transition{from: from, to: to}, false
	}
	c.state.Status = to

	if from == StatusActive {
		c.stopTickerLocked()
	}

	tr := transition{from: from, to: to}
	switch to {
	case StatusActive:
		c.state.ElapsedSeconds = 0
		c.timerGen++
		c.scheduleTickLocked(c.timerGen)
	case StatusFinished:
		c.stopTimersLocked()
		c.state.ElapsedSeconds = 0
		c.state.AgentSpeaking = false
		c.state.UserSpeaking = false
		if !c.state.handedOff {
			c.state.handedOff = true
			tr.handoff = true
			tr.turns = c.transcript.All()
		}
	}
	tr.snap = c.bumpLocked()
	return tr, true
}

// after runs the entry callbacks of a transition outside the lock.
func (c *Controller) after(tr transition) {
	c.log.WithFields(logrus.Fields{"from": tr.from, "to": tr.to}).Info("call status changed")
	c.notes.deliver(tr.snap.Version, func() { c.deps.Observer.StateChanged(tr.snap) })
	if tr.handoff {
		c.handoff(tr.turns)
	}
}

func (c *Controller) bumpLocked() State {
	c.state.Version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Elapsed = FormatElapsed(s.ElapsedSeconds)
	s.Caption = c.transcript.Latest()
	return s
}

func (c *Controller) stopRemote(handle voice.Call) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.deps.Agent.Stop(ctx, handle); err != nil {
		c.log.WithError(err).Warn("voice agent stop failed")
	}
}

func (c *Controller) stopTimersLocked() {
	c.stopTickerLocked()
	for _, t := range c.pending {
		t.Stop()
	}
	c.pending = nil
}

func (c *Controller) goAsync(f func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f()
	}()
}
