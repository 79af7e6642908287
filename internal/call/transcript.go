package call

import (
	"strings"
	"sync"

	"github.com/yoockh/mockmate/internal/models"
)

// Transcript is the append-only, ordered log of turns for one session.
type Transcript struct {
	mu    sync.Mutex
	turns []models.Turn
}

func NewTranscript() *Transcript { return &Transcript{} }

// Append adds turn and returns its 1-based position in the transcript.
func (t *Transcript) Append(turn models.Turn) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turn)
	return len(t.turns)
}

// All returns a copy of the turns in conversation order.
func (t *Transcript) All() []models.Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Latest returns the text of the most recent turn, or "".
func (t *Transcript) Latest() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.turns) == 0 {
		return ""
	}
	return t.turns[len(t.turns)-1].Content
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// FormatContext renders non-system turns as "role: content" lines.
func FormatContext(turns []models.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == models.RoleSystem {
			continue
		}
		lines = append(lines, string(turn.Role)+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}
