package call

import (
	"fmt"
	"time"

	"github.com/yoockh/mockmate/internal/providers/voice"
)

type Status string

const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFinished   Status = "FINISHED"
)

var transitions = map[Status][]Status{
	StatusInactive:   {StatusConnecting},
	StatusConnecting: {StatusActive, StatusFinished},
	StatusActive:     {StatusFinished},
}

// CanTransition reports whether from -> to is an edge of the call lifecycle.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Live reports whether a remote call may exist in this status.
func (s Status) Live() bool { return s == StatusConnecting || s == StatusActive }

type Mode string

const (
	ModeGenerate Mode = "generate"
	ModeFixed    Mode = "fixed"
)

// State is the single record a Controller mutates per event.
type State struct {
	Version uint64 `json:"version"`
	Status  Status `json:"status"`

	AgentSpeaking bool `json:"agent_speaking"`
	UserSpeaking  bool `json:"user_speaking"`

	LastSpeechStart time.Time `json:"-"`
	LastSpeechEnd   time.Time `json:"-"`

	ElapsedSeconds int    `json:"elapsed_seconds"`
	Elapsed        string `json:"elapsed"`
	Caption        string `json:"caption,omitempty"`

	Call             voice.Call `json:"call"`
	InterviewID      string     `json:"interview_id,omitempty"`
	ProvisioningOpen bool       `json:"provisioning_open"`

	stopRequested bool
	handedOff     bool
	provisioning  bool
	discarded     bool
}

// FormatElapsed renders seconds as mm:ss.
func FormatElapsed(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
