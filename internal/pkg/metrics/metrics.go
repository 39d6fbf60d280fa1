package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
// 記録用メソッドはレシーバが nil でも安全に呼び出せる
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 座席割当の一括変更の結果（result: success, invalid, conflict, error）
	ReservationBatchesTotal *prometheus.CounterVec

	// 適用された変更件数（kind: insert, delete, update）
	ReservationChangesTotal *prometheus.CounterVec

	// 一括変更1回あたりのリクエスト件数
	ReservationBatchSize prometheus.Histogram

	// 座席ブロック切替の結果（action: blocked, unblocked, skipped）
	SeatBlockTogglesTotal *prometheus.CounterVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// イベントごとの現在の座席割当数
	SeatReservationsActive *prometheus.GaugeVec

	// イベントごとの現在の座席ブロック数
	SeatBlocksActive *prometheus.GaugeVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_reservation_batches_total",
				Help: "Total number of seat reservation batch applications by result",
			},
			[]string{"result"},
		),
		ReservationChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_reservation_changes_total",
				Help: "Total number of applied seat reservation changes by kind",
			},
			[]string{"kind"},
		),
		ReservationBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seat_reservation_batch_size",
				Help:    "Number of change requests per seat reservation batch",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
			},
		),
		SeatBlockTogglesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_block_toggles_total",
				Help: "Total number of seat block toggles by action",
			},
			[]string{"action"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		SeatReservationsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seat_reservations_active",
				Help: "Current number of seat reservations per event",
			},
			[]string{"event_id"},
		),
		SeatBlocksActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seat_blocks_active",
				Help: "Current number of seat blocks per event",
			},
			[]string{"event_id"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationBatchesTotal,
		m.ReservationChangesTotal,
		m.ReservationBatchSize,
		m.SeatBlockTogglesTotal,
		m.DistributedLockDuration,
		m.SeatReservationsActive,
		m.SeatBlocksActive,
	)

	return m
}

// ObserveBatch は一括変更の結果と件数を記録する
func (m *Metrics) ObserveBatch(result string, size int) {
	if m == nil {
		return
	}
	m.ReservationBatchesTotal.WithLabelValues(result).Inc()
	m.ReservationBatchSize.Observe(float64(size))
}

// AddChanges は適用された変更件数を種別ごとに加算する
func (m *Metrics) AddChanges(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ReservationChangesTotal.WithLabelValues(kind).Add(float64(n))
}

// ObserveToggle は座席ブロック切替1件の結果を記録する
func (m *Metrics) ObserveToggle(action string) {
	if m == nil {
		return
	}
	m.SeatBlockTogglesTotal.WithLabelValues(action).Inc()
}

// ObserveLock は分散ロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// SetOccupancy はイベントごとの割当数・ブロック数のゲージを置き換える
// 削除済みイベントのラベルを残さないよう一度リセットする
func (m *Metrics) SetOccupancy(reservations, blocks map[string]int) {
	if m == nil {
		return
	}
	m.SeatReservationsActive.Reset()
	m.SeatBlocksActive.Reset()
	for eventID, n := range reservations {
		m.SeatReservationsActive.WithLabelValues(eventID).Set(float64(n))
	}
	for eventID, n := range blocks {
		m.SeatBlocksActive.WithLabelValues(eventID).Set(float64(n))
	}
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
