package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	redisinfra "github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/logger"
)

type EventService struct {
	eventRepo event.Repository
	cache     redisinfra.ReservationCacheInterface
}

// NewEventService は EventService を作成する。cache は nil でもよい
func NewEventService(eventRepo event.Repository, cache redisinfra.ReservationCacheInterface) *EventService {
	return &EventService{eventRepo: eventRepo, cache: cache}
}

type CreateEventInput struct {
	Name    string
	Venue   string
	StartAt time.Time
	EndAt   time.Time
}

func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Name, input.Venue, input.StartAt, input.EndAt)
	if err := e.Validate(); err != nil {
		return nil, apperror.Validation(err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, canonicalID(id))
}

func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.List(ctx, limit, offset)
}

// DeleteEvent はイベントを削除する
// 座席割当・ブロック・参加者はDB側で連鎖削除されるため、キャッシュも破棄する
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	id = canonicalID(id)
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			logger.ForEvent(id).Warn("キャッシュ無効化に失敗", zap.Error(err))
		}
	}
	return nil
}
