package call

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
)

func TestTranscriptKeepsOnlyFinalFragmentsInOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()

	h.ctrl.HandleEvent(partial(models.RoleAssistant, "Hel"))
	h.ctrl.HandleEvent(final(models.RoleAssistant, "Hello, tell me about yourself."))
	h.ctrl.HandleEvent(partial(models.RoleUser, "I am"))
	h.ctrl.HandleEvent(partial(models.RoleUser, "I am a"))
	h.ctrl.HandleEvent(final(models.RoleUser, "I am a backend engineer."))
	h.ctrl.HandleEvent(final(models.RoleUser, "   "))

	got := h.ctrl.Transcript()
	want := []models.Turn{
		{Role: models.RoleAssistant, Content: "Hello, tell me about yourself."},
		{Role: models.RoleUser, Content: "I am a backend engineer."},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d turns, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("turn %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if caption := h.ctrl.Snapshot().Caption; caption != "I am a backend engineer." {
		t.Fatalf("unexpected caption %q", caption)
	}
}

func TestUserSpeakingFollowsPartials(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()

	h.ctrl.HandleEvent(partial(models.RoleUser, "so"))
	if !h.ctrl.Snapshot().UserSpeaking {
		t.Fatalf("expected user speaking after partial")
	}
	h.ctrl.HandleEvent(final(models.RoleUser, "so yes"))
	if h.ctrl.Snapshot().UserSpeaking {
		t.Fatalf("expected user speaking reset after final")
	}
}

func TestTranscriptIgnoredBeforeStart(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.ctrl.HandleEvent(final(models.RoleUser, "too early"))
	if n := len(h.ctrl.Transcript()); n != 0 {
		t.Fatalf("expected no turns before start, got %d", n)
	}
}

func TestStatusTransitionsFollowGraph(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())

	if err := h.ctrl.End(context.Background()); err != nil {
		t.Fatalf("end while inactive: %v", err)
	}
	if s := h.ctrl.Snapshot().Status; s != StatusInactive {
		t.Fatalf("expected INACTIVE after end, got %s", s)
	}
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallStart})
	if s := h.ctrl.Snapshot().Status; s != StatusInactive {
		t.Fatalf("call-start must not activate an idle session, got %s", s)
	}

	outcome, err := h.ctrl.Start(context.Background())
	if err != nil || outcome != OutcomeStarted {
		t.Fatalf("start: outcome=%v err=%v", outcome, err)
	}
	if s := h.ctrl.Snapshot().Status; s != StatusConnecting {
		t.Fatalf("expected CONNECTING, got %s", s)
	}
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallStart})
	if s := h.ctrl.Snapshot().Status; s != StatusActive {
		t.Fatalf("expected ACTIVE, got %s", s)
	}
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallEnd})
	if s := h.ctrl.Snapshot().Status; s != StatusFinished {
		t.Fatalf("expected FINISHED, got %s", s)
	}
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallStart})
	if s := h.ctrl.Snapshot().Status; s != StatusFinished {
		t.Fatalf("finished session must not reactivate, got %s", s)
	}
	h.ctrl.Wait()
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusInactive, StatusConnecting, true},
		{StatusInactive, StatusActive, false},
		{StatusInactive, StatusFinished, false},
		{StatusConnecting, StatusActive, true},
		{StatusConnecting, StatusFinished, true},
		{StatusActive, StatusFinished, true},
		{StatusActive, StatusConnecting, false},
		{StatusFinished, StatusActive, false},
		{StatusFinished, StatusInactive, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestStartRejectedWhileLiveOrFinished(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()

	if _, err := h.ctrl.Start(context.Background()); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	_ = h.ctrl.End(context.Background())
	if _, err := h.ctrl.Start(context.Background()); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished, got %v", err)
	}
	if starts, _, _, _ := h.agent.counts(); starts != 1 {
		t.Fatalf("expected one start call, got %d", starts)
	}
	h.ctrl.Wait()
}

func TestStartFailureFinishesSession(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.agent.startErr = errBoom
	h.feedback.res = FeedbackResult{}
	h.feedback.err = errBoom

	if _, err := h.ctrl.Start(context.Background()); !errors.Is(err, ErrStartFailed) {
		t.Fatalf("expected ErrStartFailed, got %v", err)
	}
	if s := h.ctrl.Snapshot().Status; s != StatusFinished {
		t.Fatalf("expected FINISHED, got %s", s)
	}
	h.ctrl.Wait()
	if navs := h.obs.navs(); len(navs) != 1 || navs[0] != "/" {
		t.Fatalf("expected navigation home, got %v", navs)
	}
}

func TestEndTwiceStopsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()

	_ = h.ctrl.End(context.Background())
	_ = h.ctrl.End(context.Background())

	if _, stops, _, _ := h.agent.counts(); stops != 1 {
		t.Fatalf("expected one stop, got %d", stops)
	}
	if s := h.ctrl.Snapshot().Status; s != StatusFinished {
		t.Fatalf("expected FINISHED, got %s", s)
	}
	h.ctrl.Wait()
}

func TestEndDuringStartStopsOnceStartReturns(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.agent.startHook = func() {
		_ = h.ctrl.End(context.Background())
	}

	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.ctrl.Wait()

	if _, stops, _, _ := h.agent.counts(); stops != 1 {
		t.Fatalf("expected exactly one stop, got %d", stops)
	}
	if len(h.obs.joined) != 0 {
		t.Fatalf("client must not join a call that was already ended")
	}
}

func TestFixedStartVariables(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	req := h.agent.starts[0]
	if req.AgentID != "assistant-1" || req.Workflow {
		t.Fatalf("unexpected agent %q workflow=%v", req.AgentID, req.Workflow)
	}
	if got := req.Variables["questions"]; got != "- Tell me about yourself\n- Explain REST" {
		t.Fatalf("unexpected questions %q", got)
	}
	if got := req.Variables["max_questions"]; got != 2 {
		t.Fatalf("expected max_questions 2, got %v", got)
	}
	if got := req.Variables["techstack"]; got != "Go, Postgres" {
		t.Fatalf("unexpected techstack %q", got)
	}
	if got := req.Variables["type"]; got != "interview" {
		t.Fatalf("unexpected type %q", got)
	}
	if req.Metadata["session_id"] != "sess-1" {
		t.Fatalf("expected session id in metadata, got %v", req.Metadata)
	}
}

func TestFixedStartWithoutQuestionsUsesDirective(t *testing.T) {
	t.Parallel()

	setup := fixedSetup()
	setup.Questions = nil
	setup.NumQuestions = 7
	h := newHarness(setup)
	if _, err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	req := h.agent.starts[0]
	if got := req.Variables["questions"]; got != "(Auto-generate 7 questions based on topic/role, do not exceed)" {
		t.Fatalf("unexpected directive %q", got)
	}
	if got := req.Variables["max_questions"]; got != 7 {
		t.Fatalf("expected max_questions 7, got %v", got)
	}
}

func TestSessionTimerTicksWhileActive(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()

	h.clock.Advance(3 * time.Second)
	snap := h.ctrl.Snapshot()
	if snap.ElapsedSeconds != 3 || snap.Elapsed != "00:03" {
		t.Fatalf("expected 3s elapsed, got %d (%s)", snap.ElapsedSeconds, snap.Elapsed)
	}
	if n := h.clock.Active(); n != 1 {
		t.Fatalf("expected a single ticking timer, got %d", n)
	}

	_ = h.ctrl.End(context.Background())
	h.clock.Advance(5 * time.Second)
	if s := h.ctrl.Snapshot().ElapsedSeconds; s != 0 {
		t.Fatalf("expected timer reset on finish, got %d", s)
	}
	if n := h.clock.Active(); n != 0 {
		t.Fatalf("expected no timers after finish, got %d", n)
	}
	h.ctrl.Wait()
}

func TestHandoffFiresOncePerTermination(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()
	h.ctrl.HandleEvent(final(models.RoleUser, "Done."))

	_ = h.ctrl.End(context.Background())
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallEnd})
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallEnd})
	_ = h.ctrl.End(context.Background())
	h.ctrl.Wait()

	if n := h.feedback.calls(); n != 1 {
		t.Fatalf("expected one feedback request, got %d", n)
	}
	req := h.feedback.reqs[0]
	if req.InterviewID != "iv-1" || req.UserID != "user-1" || len(req.Transcript) != 1 {
		t.Fatalf("unexpected feedback request %+v", req)
	}
	if navs := h.obs.navs(); len(navs) != 1 || navs[0] != "/interview/iv-1/feedback" {
		t.Fatalf("unexpected navigations %v", navs)
	}
}

func TestHandoffFailureNavigatesHome(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.feedback.res = FeedbackResult{Success: true}
	h.activate()
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallEnd})
	h.ctrl.Wait()

	if navs := h.obs.navs(); len(navs) != 1 || navs[0] != "/" {
		t.Fatalf("expected navigation home when id is missing, got %v", navs)
	}
}

func TestHandoffGuardSharedAcrossControllers(t *testing.T) {
	t.Parallel()

	guard := &fakeGuard{}
	feedback := &fakeFeedback{res: FeedbackResult{Success: true, FeedbackID: "fb"}}
	for i := 0; i < 2; i++ {
		h := newHarness(fixedSetup())
		h.ctrl.deps.Guard = guard
		h.ctrl.deps.Feedback = feedback
		h.activate()
		h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallEnd})
		h.ctrl.Wait()
	}
	if n := feedback.calls(); n != 1 {
		t.Fatalf("expected guard to allow one request per session, got %d", n)
	}
}

func TestDiscardStopsCallWithoutHandoff(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()
	h.ctrl.Discard(context.Background())
	h.ctrl.Discard(context.Background())
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventCallEnd})
	h.ctrl.Wait()

	if _, stops, _, _ := h.agent.counts(); stops != 1 {
		t.Fatalf("expected one stop on discard, got %d", stops)
	}
	if n := h.feedback.calls(); n != 0 {
		t.Fatalf("discard must not request feedback, got %d", n)
	}
	if n := h.clock.Active(); n != 0 {
		t.Fatalf("expected timers cancelled, got %d", n)
	}
}

func TestAgentSpeechTracksAssistantOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()

	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventSpeechStart, Role: models.RoleUser})
	if h.ctrl.Snapshot().AgentSpeaking {
		t.Fatalf("user speech must not mark the agent speaking")
	}
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventSpeechStart, Role: models.RoleAssistant})
	snap := h.ctrl.Snapshot()
	if !snap.AgentSpeaking || snap.LastSpeechStart.IsZero() {
		t.Fatalf("expected agent speaking with timestamp, got %+v", snap)
	}
	h.ctrl.HandleEvent(voice.Event{Kind: voice.EventSpeechEnd, Role: models.RoleAssistant})
	if h.ctrl.Snapshot().AgentSpeaking {
		t.Fatalf("expected agent speaking cleared")
	}
}

func TestStateVersionIncreases(t *testing.T) {
	t.Parallel()

	h := newHarness(fixedSetup())
	h.activate()

	var last uint64
	for _, s := range h.obs.states {
		if s.Version <= last {
			t.Fatalf("versions must increase, got %d after %d", s.Version, last)
		}
		last = s.Version
	}
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	cases := map[int]string{0: "00:00", 9: "00:09", 61: "01:01", 3600: "60:00", -4: "00:00"}
	for in, want := range cases {
		if got := FormatElapsed(in); got != want {
			t.Fatalf("FormatElapsed(%d) = %q, want %q", in, got, want)
		}
	}
}
