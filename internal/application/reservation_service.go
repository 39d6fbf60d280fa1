package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seatblock"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/transaction"
	"github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/logger"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/metrics"
)

// 一括変更の結果ラベル
const (
	batchResultSuccess  = "success"
	batchResultInvalid  = "invalid"
	batchResultConflict = "conflict"
	batchResultError    = "error"
)

// ReservationService は座席割当の一括変更を調停する
//
// 変更は検証 → 分類 → 1トランザクション内の一括実行の順に行う。
// 座席の二重割当は (event_id, seat_id) の一意制約と影響行数の照合のみで防ぎ、
// アプリケーション側のロックは取らない。ブロック中の座席には割り当てない。
type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	eventRepo       event.Repository
	participantRepo participant.Repository
	seatRepo        seat.Repository
	blockRepo       seatblock.Repository
	cache           redisinfra.ReservationCacheInterface
	publisher       rabbitmq.PublisherInterface
	metrics         *metrics.Metrics
}

// NewReservationService は ReservationService を作成する
// cache, publisher, m は nil でもよい
func NewReservationService(
	tm transaction.Manager,
	rr reservation.Repository,
	er event.Repository,
	pr participant.Repository,
	sr seat.Repository,
	br seatblock.Repository,
	cache redisinfra.ReservationCacheInterface,
	publisher rabbitmq.PublisherInterface,
	m *metrics.Metrics,
) *ReservationService {
	return &ReservationService{
		txManager:       tm,
		reservationRepo: rr,
		eventRepo:       er,
		participantRepo: pr,
		seatRepo:        sr,
		blockRepo:       br,
		cache:           cache,
		publisher:       publisher,
		metrics:         m,
	}
}

type ApplyChangesInput struct {
	EventID string
	Changes []reservation.ChangeRequest
}

// ApplyChanges は変更リクエストをまとめて適用し、イベントの全座席割当を返す
//
// 検証エラーは apperror.ErrValidation、影響行数の不一致は apperror.ErrConflict として返す。
// いずれの場合も状態は一切変更されない。
func (s *ReservationService) ApplyChanges(ctx context.Context, input ApplyChangesInput) (result []*reservation.Reservation, err error) {
	defer func() { s.metrics.ObserveBatch(batchResult(err), len(input.Changes)) }()

	eventID := canonicalID(input.EventID)
	plan, err := reservation.NewPlan(canonicalChanges(input.Changes))
	if err != nil {
		return nil, apperror.Validation(err)
	}
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if err := s.validateReferences(ctx, eventID, plan); err != nil {
		return nil, err
	}

	log := logger.ForEvent(eventID)
	result, err = s.execute(ctx, eventID, plan)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			log.Info("座席割当の一括変更が競合により拒否されました", zap.Error(err))
		} else {
			log.Error("座席割当の一括変更に失敗", zap.Error(err))
		}
		return nil, err
	}

	log.Info("座席割当を一括変更しました",
		zap.Int("inserted", len(plan.Inserts)),
		zap.Int("deleted", len(plan.Deletes)),
		zap.Int("updated", len(plan.Updates)),
		zap.Int("total", len(result)),
	)
	s.afterCommit(ctx, eventID, plan, result)
	return result, nil
}

// ListReservations はイベントの全座席割当を返す。キャッシュがあればそれを使う
//
// キャッシュミス時はDBを読む前に世代番号を控え、読み取り中に一括変更が
// キャッシュを無効化していた場合は読んだ一覧を保存しない。
func (s *ReservationService) ListReservations(ctx context.Context, eventID string) ([]*reservation.Reservation, error) {
	eventID = canonicalID(eventID)
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}

	log := logger.ForEvent(eventID)
	fill := false
	var generation int64
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, eventID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			log.Warn("キャッシュ取得に失敗", zap.Error(err))
		}
		if generation, err = s.cache.Generation(ctx, eventID); err != nil {
			log.Warn("キャッシュ世代の取得に失敗", zap.Error(err))
		} else {
			fill = true
		}
	}

	list, err := s.reservationRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("座席割当一覧の取得に失敗: %w", err)
	}
	if fill {
		err := s.cache.Set(ctx, eventID, generation, list)
		switch {
		case errors.Is(err, redisinfra.ErrStaleSnapshot):
			log.Debug("読み取り中に座席割当が変更されたためキャッシュしません")
		case err != nil:
			log.Warn("キャッシュ保存に失敗", zap.Error(err))
		}
	}
	return list, nil
}

func (s *ReservationService) ensureEvent(ctx context.Context, eventID string) error {
	if err := requireEvent(ctx, s.eventRepo, eventID); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return apperror.Validation(fmt.Errorf("イベント %s: %w", eventID, err))
		}
		return err
	}
	return nil
}

// validateReferences は参加者・座席・座席割当の参照をまとめて検証する
// 旧参加者が現在の保持者と一致するかはここでは見ず、一括実行時の影響行数で判定する
func (s *ReservationService) validateReferences(ctx context.Context, eventID string, plan *reservation.Plan) error {
	participantIDs := plan.ParticipantIDs()
	participants, err := s.participantRepo.FindByIDs(ctx, participantIDs)
	if err != nil {
		return fmt.Errorf("参加者の確認に失敗: %w", err)
	}
	byID := make(map[string]*participant.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	for _, id := range participantIDs {
		p, ok := byID[id]
		if !ok {
			return apperror.Validation(fmt.Errorf("参加者 %s: %w", id, participant.ErrParticipantNotFound))
		}
		if !p.BelongsTo(eventID) {
			return apperror.Validation(fmt.Errorf("参加者 %s: %w", id, participant.ErrParticipantNotInEvent))
		}
	}

	if seatIDs := plan.SeatIDs(); len(seatIDs) > 0 {
		existing, err := s.seatRepo.FindExisting(ctx, seatIDs)
		if err != nil {
			return fmt.Errorf("座席の確認に失敗: %w", err)
		}
		if id, missing := firstMissing(seatIDs, existing); missing {
			return apperror.Validation(fmt.Errorf("座席 %s: %w", id, seat.ErrSeatNotFound))
		}
	}

	current := make(map[string]*reservation.Reservation)
	if reservationIDs := plan.ReservationIDs(); len(reservationIDs) > 0 {
		found, err := s.reservationRepo.FindByIDs(ctx, eventID, reservationIDs)
		if err != nil {
			return fmt.Errorf("座席割当の確認に失敗: %w", err)
		}
		ids := make([]string, len(found))
		for i, r := range found {
			ids[i] = r.ID
			current[r.ID] = r
		}
		if id, missing := firstMissing(reservationIDs, ids); missing {
			return apperror.Validation(fmt.Errorf("座席割当 %s: %w", id, reservation.ErrReservationNotFound))
		}
	}

	return s.rejectBlockedSeats(ctx, eventID, plan, current)
}

// rejectBlockedSeats は新たに占有される座席にブロックがあれば競合として返す
// 付け替えで座席が変わらない項目は対象にしない
func (s *ReservationService) rejectBlockedSeats(ctx context.Context, eventID string, plan *reservation.Plan, current map[string]*reservation.Reservation) error {
	targets := make([]string, 0, len(plan.Inserts)+len(plan.Updates))
	for _, a := range plan.Inserts {
		targets = append(targets, a.SeatID)
	}
	for _, u := range plan.Updates {
		if r, ok := current[u.ReservationID]; ok && r.SeatID == u.SeatID {
			continue
		}
		targets = append(targets, u.SeatID)
	}
	if len(targets) == 0 {
		return nil
	}

	blocked, err := s.blockRepo.FindBlockedSeats(ctx, eventID, targets)
	if err != nil {
		return fmt.Errorf("座席ブロックの確認に失敗: %w", err)
	}
	if len(blocked) > 0 {
		return apperror.Conflict(fmt.Errorf("座席 %s: %w", blocked[0], reservation.ErrSeatBlocked))
	}
	return nil
}

// execute は1トランザクション内で 解除 → 付け替え → 新規 の順に一括実行し、
// 同じトランザクション内で読み直したイベントの全座席割当を返す
// 同じバッチ内で解除・付け替えにより空いた座席を新規割当に使える
// 読み直しに失敗した場合もコミットせずにロールバックする
func (s *ReservationService) execute(ctx context.Context, eventID string, plan *reservation.Plan) ([]*reservation.Reservation, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if len(plan.Deletes) > 0 {
		n, err := s.reservationRepo.DeleteBatch(ctx, tx, eventID, plan.Deletes)
		if err := checkAffected(n, err, len(plan.Deletes), reservation.ErrReleaseMismatch); err != nil {
			return nil, err
		}
	}

	if len(plan.Updates) > 0 {
		n, err := s.reservationRepo.UpdateBatch(ctx, tx, eventID, plan.Updates)
		if err := checkAffected(n, err, len(plan.Updates), reservation.ErrReassignmentMismatch); err != nil {
			return nil, err
		}
	}

	if len(plan.Inserts) > 0 {
		n, err := s.reservationRepo.InsertBatch(ctx, tx, eventID, plan.Inserts)
		if err := checkAffected(n, err, len(plan.Inserts), reservation.ErrSeatsAlreadyReserved); err != nil {
			return nil, err
		}
	}

	result, err := s.reservationRepo.ListByEventTx(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("座席割当の再取得に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return result, nil
}

// afterCommit はコミット後の付随処理を行う。失敗しても呼び出し元には返さない
func (s *ReservationService) afterCommit(ctx context.Context, eventID string, plan *reservation.Plan, result []*reservation.Reservation) {
	log := logger.ForEvent(eventID)

	s.metrics.AddChanges(reservation.KindInsert.String(), len(plan.Inserts))
	s.metrics.AddChanges(reservation.KindDelete.String(), len(plan.Deletes))
	s.metrics.AddChanges(reservation.KindUpdate.String(), len(plan.Updates))

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			log.Warn("キャッシュ無効化に失敗", zap.Error(err))
		}
	}

	if s.publisher != nil {
		msg := rabbitmq.ReservationsReconciled{
			EventID:    eventID,
			Inserted:   len(plan.Inserts),
			Deleted:    len(plan.Deletes),
			Updated:    len(plan.Updates),
			Total:      len(result),
			OccurredAt: time.Now().UTC(),
		}
		if err := s.publisher.PublishReservationsReconciled(ctx, msg); err != nil {
			log.Warn("変更通知の送信に失敗", zap.Error(err))
		}
	}
}

// checkAffected は一括操作の影響行数を要求数と照合する
func checkAffected(n int64, err error, want int, mismatch error) error {
	if err != nil {
		if isConflictCause(err) {
			return apperror.Conflict(err)
		}
		return err
	}
	if n != int64(want) {
		return apperror.Conflict(fmt.Errorf("%w (要求 %d 件, 反映 %d 件)", mismatch, want, n))
	}
	return nil
}

// isConflictCause はリポジトリが返す競合系のエラーかを判定する
func isConflictCause(err error) bool {
	return errors.Is(err, reservation.ErrSeatsAlreadyReserved) ||
		errors.Is(err, reservation.ErrSeatOccupied)
}

func batchResult(err error) string {
	switch {
	case err == nil:
		return batchResultSuccess
	case errors.Is(err, apperror.ErrValidation):
		return batchResultInvalid
	case errors.Is(err, apperror.ErrConflict):
		return batchResultConflict
	default:
		return batchResultError
	}
}

// firstMissing は want のうち have に含まれない最初のIDを返す
func firstMissing(want, have []string) (string, bool) {
	set := make(map[string]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := set[id]; !ok {
			return id, true
		}
	}
	return "", false
}
