package services

import (
	"context"
	"testing"

	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
	"github.com/yoockh/mockmate/internal/utils"
)

func TestSessionRecorderPersistsInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessions()
	convos := &memConvos{}
	sessions := NewSessionService(repo)

	s, err := sessions.Start(ctx, "user-1", "fixed", "iv-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	rec := NewSessionRecorder(sessions, NewConversationService(convos, nil), s, testLog())

	rec.StateChanged(call.State{Version: 1, Status: call.StatusConnecting})
	rec.StateChanged(call.State{Version: 2, Status: call.StatusConnecting, Caption: "same status"})
	rec.CallJoined(voice.Call{ID: "call-1"})
	rec.StateChanged(call.State{Version: 3, Status: call.StatusActive})
	rec.TurnAppended(models.Turn{Role: models.RoleAssistant, Content: "Hi"}, 1, call.SourceVoice)
	rec.TurnAppended(models.Turn{Role: models.RoleUser, Content: "Hello"}, 2, call.SourceText)
	rec.StateChanged(call.State{Version: 6, Status: call.StatusFinished})
	rec.Close()
	rec.Close()

	got, _ := repo.GetBySessionID(ctx, s.SessionID)
	if got.Status != "FINISHED" || got.EndedAt == nil || got.CallID != "call-1" {
		t.Fatalf("unexpected session %+v", got)
	}
	if len(convos.rows) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(convos.rows))
	}
	if convos.rows[0].Seq != 1 || convos.rows[1].Seq != 2 || convos.rows[1].Source != "text" {
		t.Fatalf("unexpected rows %+v", convos.rows)
	}

	rec.TurnAppended(models.Turn{Role: models.RoleUser, Content: "late"}, 3, call.SourceText)
	if len(convos.rows) != 2 {
		t.Fatalf("expected writes after close to be dropped")
	}
}

func TestSessionRecorderIgnoresStaleStates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessions()
	sessions := NewSessionService(repo)

	s, err := sessions.Start(ctx, "user-1", "fixed", "iv-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	rec := NewSessionRecorder(sessions, NewConversationService(&memConvos{}, nil), s, testLog())

	rec.StateChanged(call.State{Version: 4, Status: call.StatusActive})
	rec.StateChanged(call.State{Version: 2, Status: call.StatusConnecting})
	rec.StateChanged(call.State{Version: 7, Status: call.StatusFinished})
	rec.StateChanged(call.State{Version: 5, Status: call.StatusActive})
	rec.StateChanged(call.State{Version: 9, Status: call.StatusActive})
	rec.Close()

	got, _ := repo.GetBySessionID(ctx, s.SessionID)
	if got.Status != "FINISHED" || got.EndedAt == nil {
		t.Fatalf("expected the finished status to stick, got %+v", got)
	}
	if n := repo.statusWrites(); n != 1 {
		t.Fatalf("expected only the ACTIVE write before the end, got %d", n)
	}
}

func TestConversationTranscript(t *testing.T) {
	t.Parallel()

	convos := &memConvos{}
	svc := NewConversationService(convos, nil)
	ctx := context.Background()
	for i, turn := range sampleTranscript {
		if _, err := svc.Append(ctx, TurnRecord{
			UserID: "u", SessionID: "s", Seq: i + 1, Role: string(turn.Role), Content: turn.Content,
			Embedding: []float32{0.1, 0.2},
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := svc.Append(ctx, TurnRecord{UserID: "u", SessionID: "s", Role: "user"}); err == nil {
		t.Fatalf("expected empty content rejected")
	}

	turns, err := svc.Transcript(ctx, "u", "s")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(turns) != 2 || turns[1] != sampleTranscript[1] {
		t.Fatalf("unexpected transcript %+v", turns)
	}
	if convos.rows[0].Embedding == nil {
		t.Fatalf("expected embedding stored")
	}
}

func TestConversationEmbedsTurnsAndSearches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	convos := &memConvos{}
	embed := &fakeEmbedder{}
	svc := NewConversationService(convos, embed)

	if _, err := svc.Append(ctx, TurnRecord{UserID: "u", SessionID: "s", Seq: 1, Role: "user", Content: "I sharded by tenant"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if convos.rows[0].Embedding == nil || len(convos.rows[0].Embedding.Slice()) != 2 {
		t.Fatalf("expected the turn to be embedded, got %+v", convos.rows[0].Embedding)
	}

	embed.err = errBoom
	if _, err := svc.Append(ctx, TurnRecord{UserID: "u", SessionID: "s", Seq: 2, Role: "assistant", Content: "Why?"}); err != nil {
		t.Fatalf("embedding failure must not lose the turn: %v", err)
	}
	if convos.rows[1].Embedding != nil {
		t.Fatalf("expected no vector when embedding fails")
	}
	embed.err = nil

	rows, err := svc.Search(ctx, "u", "  sharding  ", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 1 || rows[0].Seq != 1 {
		t.Fatalf("expected only the embedded turn, got %+v", rows)
	}
	if last := embed.texts[len(embed.texts)-1]; last != "sharding" {
		t.Fatalf("expected the trimmed query embedded, got %q", last)
	}
	if len(convos.queries) != 1 || convos.queries[0][0] != float32(len("sharding")) {
		t.Fatalf("unexpected nearest-neighbour queries %v", convos.queries)
	}

	if _, err := svc.Search(ctx, "u", " ", 5); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument for empty query, got %v", err)
	}
	if _, err := NewConversationService(convos, nil).Search(ctx, "u", "x", 5); !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("expected unavailable without an embedder, got %v", err)
	}
}
