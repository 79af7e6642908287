package call

import (
	"context"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/providers/voice"
)

type FeedbackRequest struct {
	SessionID   string        `json:"sessionId,omitempty"`
	InterviewID string        `json:"interviewId"`
	UserID      string        `json:"userId"`
	Transcript  []models.Turn `json:"transcript"`
	FeedbackID  string        `json:"feedbackId,omitempty"`
}

type FeedbackResult struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}

// FeedbackGenerator scores a finished transcript.
type FeedbackGenerator interface {
	Generate(ctx context.Context, req FeedbackRequest) (FeedbackResult, error)
}

type ReplyRequest struct {
	UserText         string `json:"userText"`
	Role             string `json:"role"`
	TechStack        string `json:"techstack"`
	Type             string `json:"type"`
	Level            string `json:"level"`
	MaxQuestions     int    `json:"max_questions"`
	ContextQuestions string `json:"contextQuestions"`
}

// ReplyGenerator produces a short interviewer reply for the fallback channel.
type ReplyGenerator interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}

type InterviewDraft struct {
	Role         string   `json:"role"`
	Type         string   `json:"type"`
	Level        string   `json:"level"`
	TechStack    string   `json:"techstack"`
	Questions    []string `json:"questions"`
	NumQuestions int      `json:"numQuestions"`
	UserID       string   `json:"userid"`
}

// InterviewCreator persists a new interview definition and returns its id.
type InterviewCreator interface {
	Create(ctx context.Context, draft InterviewDraft) (string, error)
}

// HandoffGuard claims the feedback hand-off for a session id. Acquire
// returns false when another holder already claimed it.
type HandoffGuard interface {
	Acquire(ctx context.Context, sessionID string) (bool, error)
}

type TurnSource string

const (
	SourceVoice    TurnSource = "voice"
	SourceText     TurnSource = "text"
	SourceFallback TurnSource = "fallback"
)

// Observer receives everything a session wants to surface to the client
// or persist. Calls are made without the controller lock held, one batch at
// a time in State.Version order, so an observer must not call back into the
// controller. seq is the turn's 1-based position in the transcript.
type Observer interface {
	StateChanged(state State)
	TurnAppended(turn models.Turn, seq int, source TurnSource)
	CallJoined(call voice.Call)
	ProvisioningRequested()
	ProvisioningFailed(message string)
	InterviewReady(interviewID string)
	Navigate(path string)
}

// Observers fans every notification out in order.
type Observers []Observer

func (o Observers) StateChanged(s State) {
	for _, x := range o {
		x.StateChanged(s)
	}
}

func (o Observers) TurnAppended(turn models.Turn, seq int, source TurnSource) {
	for _, x := range o {
		x.TurnAppended(turn, seq, source)
	}
}

func (o Observers) CallJoined(c voice.Call) {
	for _, x := range o {
		x.CallJoined(c)
	}
}

func (o Observers) ProvisioningRequested() {
	for _, x := range o {
		x.ProvisioningRequested()
	}
}

func (o Observers) ProvisioningFailed(message string) {
	for _, x := range o {
		x.ProvisioningFailed(message)
	}
}

func (o Observers) InterviewReady(id string) {
	for _, x := range o {
		x.InterviewReady(id)
	}
}

func (o Observers) Navigate(path string) {
	for _, x := range o {
		x.Navigate(path)
	}
}

// NopObserver ignores every notification; embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) StateChanged(State) {}
func (NopObserver) TurnAppended(models.Turn, int, TurnSource) {}
func (NopObserver) CallJoined(voice.Call) {}
func (NopObserver) ProvisioningRequested() {}
func (NopObserver) ProvisioningFailed(string) {}
func (NopObserver) InterviewReady(string) {}
func (NopObserver) Navigate(string) {}
