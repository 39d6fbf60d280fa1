package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	redisinfra "github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/logger"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/metrics"
)

// 複数インスタンスのうち1台だけが集計するためのロックキー
const occupancyLockKey = "occupancy-refresh"

// OccupancySource はイベントごとの座席割当数・ブロック数を返すインターフェース
type OccupancySource interface {
	Snapshot(ctx context.Context) (reservations, blocks map[string]int, err error)
}

// OccupancyRefresher は占有状況のゲージを定期的に更新するワーカー
type OccupancyRefresher struct {
	source   OccupancySource
	locker   redisinfra.LockManagerInterface
	metrics  *metrics.Metrics
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewOccupancyRefresher は新しいワーカーを作成する
// locker が nil の場合はロックを取らずに毎回集計する
func NewOccupancyRefresher(
	source OccupancySource,
	locker redisinfra.LockManagerInterface,
	m *metrics.Metrics,
	interval time.Duration,
) *OccupancyRefresher {
	return &OccupancyRefresher{
		source:   source,
		locker:   locker,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はワーカーを開始する。起動直後に1回集計する
func (r *OccupancyRefresher) Start(ctx context.Context) {
	logger.Info("占有状況リフレッシャー開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("占有状況リフレッシャー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("占有状況リフレッシャー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Stop はワーカーを停止する
func (r *OccupancyRefresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// refresh は集計してゲージを置き換える
func (r *OccupancyRefresher) refresh(ctx context.Context) {
	log := logger.Get()

	if r.locker != nil {
		lock, err := r.locker.AcquireLock(ctx, occupancyLockKey, r.interval)
		if errors.Is(err, redisinfra.ErrLockNotAcquired) {
			log.Debug("他のインスタンスが集計中のためスキップ")
			return
		}
		if err != nil {
			log.Error("占有状況ロックの取得失敗", zap.Error(err))
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				log.Warn("占有状況ロックの解放失敗", zap.Error(err))
			}
		}()
	}

	reservations, blocks, err := r.source.Snapshot(ctx)
	if err != nil {
		log.Error("占有状況の集計失敗", zap.Error(err))
		return
	}
	r.metrics.SetOccupancy(reservations, blocks)
	log.Debug("占有状況を更新",
		zap.Int("events_with_reservations", len(reservations)),
		zap.Int("events_with_blocks", len(blocks)),
	)
}
