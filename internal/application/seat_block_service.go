package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seatblock"
	"github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/rabbitmq"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/logger"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/metrics"
)

// SeatBlockService は座席ブロックの切替を行う
// 切替は1件ずつ独立して実行し、エントリ間のトランザクションは張らない
type SeatBlockService struct {
	blockRepo seatblock.Repository
	eventRepo event.Repository
	seatRepo  seat.Repository
	publisher rabbitmq.PublisherInterface
	metrics   *metrics.Metrics
}

func NewSeatBlockService(
	br seatblock.Repository,
	er event.Repository,
	sr seat.Repository,
	publisher rabbitmq.PublisherInterface,
	m *metrics.Metrics,
) *SeatBlockService {
	return &SeatBlockService{blockRepo: br, eventRepo: er, seatRepo: sr, publisher: publisher, metrics: m}
}

type ToggleBlocksInput struct {
	EventID string
	Toggles []seatblock.Toggle
}

// ToggleBlocks は座席ごとにブロックを反転させ、イベントの全ブロックを返す
// 存在しない座席や個別の失敗は警告ログを出して読み飛ばす
func (s *SeatBlockService) ToggleBlocks(ctx context.Context, input ToggleBlocksInput) ([]*seatblock.SeatBlock, error) {
	if len(input.Toggles) == 0 {
		return nil, apperror.Validation(seatblock.ErrEmptyToggles)
	}
	eventID := canonicalID(input.EventID)
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}

	log := logger.ForEvent(eventID)
	msg := rabbitmq.SeatBlocksToggled{EventID: eventID}
	for _, t := range input.Toggles {
		seatID := canonicalID(t.SeatID)
		action, err := s.toggle(ctx, eventID, seatID)
		if err != nil {
			log.Warn("座席ブロックの切替をスキップ", zap.String("seat_id", seatID), zap.Error(err))
		}
		s.metrics.ObserveToggle(string(action))

		switch action {
		case seatblock.ActionBlocked:
			msg.Blocked = append(msg.Blocked, seatID)
		case seatblock.ActionUnblocked:
			msg.Unblocked = append(msg.Unblocked, seatID)
		default:
			msg.Skipped = append(msg.Skipped, seatID)
		}
	}

	blocks, err := s.blockRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("座席ブロック一覧の取得に失敗: %w", err)
	}

	log.Info("座席ブロックを切り替えました",
		zap.Int("blocked", len(msg.Blocked)),
		zap.Int("unblocked", len(msg.Unblocked)),
		zap.Int("skipped", len(msg.Skipped)),
	)
	if s.publisher != nil {
		msg.OccurredAt = time.Now().UTC()
		if err := s.publisher.PublishSeatBlocksToggled(ctx, msg); err != nil {
			log.Warn("変更通知の送信に失敗", zap.Error(err))
		}
	}
	return blocks, nil
}

// toggle は1座席分のブロックを反転させる
func (s *SeatBlockService) toggle(ctx context.Context, eventID, seatID string) (seatblock.Action, error) {
	if seatID == "" {
		return seatblock.ActionSkipped, seat.ErrSeatNotFound
	}

	blocked, err := s.blockRepo.Exists(ctx, eventID, seatID)
	if err != nil {
		return seatblock.ActionSkipped, err
	}
	if blocked {
		deleted, err := s.blockRepo.DeleteByEventAndSeat(ctx, eventID, seatID)
		if err != nil {
			return seatblock.ActionSkipped, err
		}
		if !deleted {
			return seatblock.ActionSkipped, errors.New("他のリクエストにより既に解除されています")
		}
		return seatblock.ActionUnblocked, nil
	}

	exists, err := s.seatRepo.Exists(ctx, seatID)
	if err != nil {
		return seatblock.ActionSkipped, err
	}
	if !exists {
		return seatblock.ActionSkipped, seat.ErrSeatNotFound
	}
	inserted, err := s.blockRepo.Insert(ctx, seatblock.NewSeatBlock(eventID, seatID))
	if err != nil {
		return seatblock.ActionSkipped, err
	}
	if !inserted {
		return seatblock.ActionSkipped, errors.New("他のリクエストにより既にブロックされています")
	}
	return seatblock.ActionBlocked, nil
}

// ListSeatBlocks はイベントの全ブロックを返す
func (s *SeatBlockService) ListSeatBlocks(ctx context.Context, eventID string) ([]*seatblock.SeatBlock, error) {
	eventID = canonicalID(eventID)
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.blockRepo.ListByEvent(ctx, eventID)
}

func (s *SeatBlockService) ensureEvent(ctx context.Context, eventID string) error {
	if err := requireEvent(ctx, s.eventRepo, eventID); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return apperror.Validation(fmt.Errorf("イベント %s: %w", eventID, err))
		}
		return err
	}
	return nil
}
