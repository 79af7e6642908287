package call

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order on the caller's
// goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// Active counts timers that have neither fired nor been stopped.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type injectCall struct {
	Shape voice.TextShape
	Text  string
}

type fakeAgent struct {
	mu       sync.Mutex
	starts   []voice.StartRequest
	stops    []voice.Call
	injects  []injectCall
	says     []string
	startErr error
	accept   voice.TextShape

	// injectBlock, when set, holds InjectText until it is closed.
	injectBlock chan struct{}

	// startHook runs inside Start before it returns.
	startHook func()
}

func (a *fakeAgent) Start(_ context.Context, req voice.StartRequest) (voice.Call, error) {
	a.mu.Lock()
	a.starts = append(a.starts, req)
	hook, err := a.startHook, a.startErr
	n := len(a.starts)
	a.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return voice.Call{}, err
	}
	id := "call-" + strconv.Itoa(n)
	return voice.Call{ID: id, JoinURL: "https://join/" + id, ControlURL: "https://control/" + id}, nil
}

func (a *fakeAgent) Stop(_ context.Context, c voice.Call) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops = append(a.stops, c)
	return nil
}

func (a *fakeAgent) InjectText(_ context.Context, _ voice.Call, shape voice.TextShape, text string) error {
	a.mu.Lock()
	block := a.injectBlock
	a.mu.Unlock()
	if block != nil {
		<-block
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.injects = append(a.injects, injectCall{Shape: shape, Text: text})
	if a.accept != "" && shape == a.accept {
		return nil
	}
	return voice.ErrShapeRejected
}

func (a *fakeAgent) Say(_ context.Context, _ voice.Call, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.says = append(a.says, text)
	return nil
}

func (a *fakeAgent) counts() (starts, stops, injects, says int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.starts), len(a.stops), len(a.injects), len(a.says)
}

type fakeFeedback struct {
	mu   sync.Mutex
	reqs []FeedbackRequest
	res  FeedbackResult
	err  error
}

func (f *fakeFeedback) Generate(_ context.Context, req FeedbackRequest) (FeedbackResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

func (f *fakeFeedback) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeReplies struct {
	mu    sync.Mutex
	reqs  []ReplyRequest
	reply string
	err   error
}

func (f *fakeReplies) Reply(_ context.Context, req ReplyRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func (f *fakeReplies) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeCreator struct {
	mu     sync.Mutex
	drafts []InterviewDraft
	id     string
	err    error
}

func (f *fakeCreator) Create(_ context.Context, d InterviewDraft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	return f.id, f.err
}

func (f *fakeCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drafts)
}

type fakeGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *fakeGuard) Acquire(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[id] {
		return false, nil
	}
	g.seen[id] = true
	return true, nil
}

type recordedTurn struct {
	Turn   models.Turn
	Seq    int
	Source TurnSource
}

type recordingObserver struct {
	mu           sync.Mutex
	states       []State
	turns        []recordedTurn
	joined       []voice.Call
	provisioning int
	failures     []string
	ready        []string
	navigations  []string
}

func (o *recordingObserver) StateChanged(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *recordingObserver) TurnAppended(t models.Turn, seq int, src TurnSource) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turns = append(o.turns, recordedTurn{Turn: t, Seq: seq, Source: src})
}

func (o *recordingObserver) CallJoined(c voice.Call) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.joined = append(o.joined, c)
}

func (o *recordingObserver) ProvisioningRequested() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.provisioning++
}

func (o *recordingObserver) ProvisioningFailed(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, msg)
}

func (o *recordingObserver) InterviewReady(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = append(o.ready, id)
}

func (o *recordingObserver) Navigate(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.navigations = append(o.navigations, path)
}

func (o *recordingObserver) navs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.navigations...)
}

type harness struct {
	ctrl     *Controller
	clock    *fakeClock
	agent    *fakeAgent
	feedback *fakeFeedback
	replies  *fakeReplies
	creator  *fakeCreator
	obs      *recordingObserver
}

func newHarness(setup Setup, extra ...Observer) *harness {
	h := &harness{
		clock:    newFakeClock(),
		agent:    &fakeAgent{},
		feedback: &fakeFeedback{res: FeedbackResult{Success: true, FeedbackID: "fb-1"}},
		replies:  &fakeReplies{reply: "Could you expand on that?"},
		creator:  &fakeCreator{id: "iv-new"},
		obs:      &recordingObserver{},
	}
	if setup.SessionID == "" {
		setup.SessionID = "sess-1"
	}
	if setup.UserID == "" {
		setup.UserID = "user-1"
	}
	h.ctrl = NewController(setup, Deps{
		Agent:      h.agent,
		Feedback:   h.feedback,
		Replies:    h.replies,
		Interviews: h.creator,
		Observer:   append(Observers{h.obs}, extra...),
	}, Options{
		InterviewerID: "assistant-1",
		WorkflowID:    "workflow-1",
		Clock:         h.clock,
	})
	return h
}

func fixedSetup() Setup {
	return Setup{
		Mode:        ModeFixed,
		InterviewID: "iv-1",
		Username:    "Ada",
		Role:        "Backend Engineer",
		Type:        "technical",
		Level:       "Senior",
		TechStack:   []string{"Go", "Postgres"},
		Questions:   []string{"Tell me about yourself", "Explain REST"},
	}
}

// activate starts a fixed session and delivers call-start.
func (h *harness) activate() {
	if _, err := h.ctrl.Start(context.Background()); err != nil {
		panic(err)
	}
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallStart})
}

func final(role models.Role, text string) voice.Event {
	return voice.Event{Kind: voice.EventTranscript, Role: role, TranscriptType: voice.TranscriptFinal, Text: text}
}

func partial(role models.Role, text string) voice.Event {
	return voice.Event{Kind: voice.EventTranscript, Role: role, TranscriptType: voice.TranscriptPartial, Text: text}
}

var errBoom = errors.New("boom")
