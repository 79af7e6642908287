package services

import (
	"context"

	"github.com/yoockh/mockmate/internal/models"
	mongorepo "github.com/yoockh/mockmate/internal/repositories/mongo"
	"github.com/yoockh/mockmate/internal/utils"
)

// VoiceEventService keeps raw voice agent webhook payloads for debugging.
type VoiceEventService interface {
	Record(ctx context.Context, sessionID, callID, typ string, payload []byte) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.VoiceEventLog, error)
}

type voiceEventService struct {
	events mongorepo.VoiceEventRepository
}

func NewVoiceEventService(events mongorepo.VoiceEventRepository) VoiceEventService {
	return &voiceEventService{events: events}
}

func (s *voiceEventService) Record(ctx context.Context, sessionID, callID, typ string, payload []byte) error {
	const op = "VoiceEventService.Record"

	if sessionID == "" || typ == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and type are required", nil)
	}
	doc := &models.VoiceEventLog{
		SessionID: sessionID,
		CallID:    callID,
		Type:      typ,
		Payload:   string(payload),
	}
	if err := s.events.Insert(ctx, doc); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to record voice event", err)
	}
	return nil
}

func (s *voiceEventService) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.VoiceEventLog, error) {
	const op = "VoiceEventService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.events.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list voice events", err)
	}
	return out, nil
}
