package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
)

type ParticipantService struct {
	participantRepo participant.Repository
	eventRepo       event.Repository
}

func NewParticipantService(pr participant.Repository, er event.Repository) *ParticipantService {
	return &ParticipantService{participantRepo: pr, eventRepo: er}
}

type RegisterParticipantInput struct {
	EventID string
	Name    string
	Email   string
}

func (s *ParticipantService) RegisterParticipant(ctx context.Context, input RegisterParticipantInput) (*participant.Participant, error) {
	if err := requireEvent(ctx, s.eventRepo, input.EventID); err != nil {
		return nil, err
	}
	p := participant.NewParticipant(input.EventID, input.Name, input.Email)
	if err := p.Validate(); err != nil {
		return nil, apperror.Validation(err)
	}
	if err := s.participantRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("参加者登録に失敗しました: %w", err)
	}
	return p, nil
}

func (s *ParticipantService) GetParticipant(ctx context.Context, id string) (*participant.Participant, error) {
	return s.participantRepo.GetByID(ctx, id)
}

func (s *ParticipantService) ListParticipants(ctx context.Context, eventID string) ([]*participant.Participant, error) {
	if err := requireEvent(ctx, s.eventRepo, eventID); err != nil {
		return nil, err
	}
	return s.participantRepo.ListByEvent(ctx, eventID)
}

// requireEvent はイベントが存在しない場合 event.ErrEventNotFound を返す
func requireEvent(ctx context.Context, repo event.Repository, eventID string) error {
	ok, err := repo.Exists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("イベントの確認に失敗: %w", err)
	}
	if !ok {
		return event.ErrEventNotFound
	}
	return nil
}
