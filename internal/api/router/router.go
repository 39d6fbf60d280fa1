package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-event-seat-assignment/internal/api"
	"github.com/sanosuguru/go-event-seat-assignment/internal/api/handler"
	"github.com/sanosuguru/go-event-seat-assignment/internal/api/middleware"
	"github.com/sanosuguru/go-event-seat-assignment/internal/config"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Health      *handler.HealthHandler
	Event       *handler.EventHandler
	Participant *handler.ParticipantHandler
	Seat        *handler.SeatHandler
	Reservation *handler.ReservationHandler
	SeatBlock   *handler.SeatBlockHandler
}

// Options はルーターの任意設定
type Options struct {
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	MetricsAuth config.MetricsConfig
}

// New はミドルウェアとルートを設定した Echo インスタンスを作成する
// Gatherer が nil の場合はデフォルトレジストリを公開する
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(opts.Metrics))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics",
		echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		middleware.MetricsBasicAuth(opts.MetricsAuth),
	)
	e.GET("/health", h.Health.Check)

	v1 := e.Group("/api/v1")

	v1.POST("/events", h.Event.Create)
	v1.GET("/events", h.Event.List)
	v1.GET("/events/:id", h.Event.GetByID)
	v1.DELETE("/events/:id", h.Event.Delete)

	v1.POST("/events/:event_id/participants", h.Participant.Register)
	v1.GET("/events/:event_id/participants", h.Participant.ListByEvent)
	v1.GET("/participants/:id", h.Participant.GetByID)

	v1.POST("/seats", h.Seat.Create)
	v1.POST("/seats/bulk", h.Seat.CreateBulk)
	v1.GET("/seats", h.Seat.List)
	v1.GET("/seats/:id", h.Seat.GetByID)

	v1.GET("/events/:event_id/reservations", h.Reservation.List)
	v1.PUT("/events/:event_id/reservations", h.Reservation.Apply)

	v1.GET("/events/:event_id/seat-blocks", h.SeatBlock.List)
	v1.PUT("/events/:event_id/seat-blocks", h.SeatBlock.Toggle)

	return e
}
