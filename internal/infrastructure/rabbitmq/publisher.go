// Package rabbitmq はコミット済みの変更をRabbitMQのトピックエクスチェンジへ通知する。
// 通知はベストエフォートで、失敗しても呼び出し元の処理結果は変わらない。
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sanosuguru/go-event-seat-assignment/internal/config"
)

// PublisherInterface は変更通知の送信を抽象化する
type PublisherInterface interface {
	PublishReservationsReconciled(ctx context.Context, msg ReservationsReconciled) error
	PublishSeatBlocksToggled(ctx context.Context, msg SeatBlocksToggled) error
}

// channel は amqp.Channel のうち送信に使う部分
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher は1本のコネクションとチャネルを使い回して送信する
// amqp.Channel は並行送信に対応していないため mu で直列化する
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	now      func() time.Time
}

// NewPublisher はブローカーに接続し、エクスチェンジを宣言する
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("RabbitMQチャネル作成に失敗しました: %w", err)
	}

	// 冪等。durable にしてブローカー再起動後も残す
	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("エクスチェンジ宣言に失敗しました: %w", err)
	}

	return newPublisher(conn, ch, cfg.Exchange), nil
}

func newPublisher(conn *amqp.Connection, ch channel, exchange string) *Publisher {
	return &Publisher{conn: conn, ch: ch, exchange: exchange, now: time.Now}
}

// PublishReservationsReconciled は座席割当の一括変更を通知する
func (p *Publisher) PublishReservationsReconciled(ctx context.Context, msg ReservationsReconciled) error {
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = p.now().UTC()
	}
	return p.publish(ctx, RoutingReservationsReconciled, msg)
}

// PublishSeatBlocksToggled は座席ブロックの切替を通知する
func (p *Publisher) PublishSeatBlocksToggled(ctx context.Context, msg SeatBlocksToggled) error {
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = p.now().UTC()
	}
	return p.publish(ctx, RoutingSeatBlocksToggled, msg)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("メッセージの変換に失敗: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("メッセージ送信に失敗 (%s): %w", routingKey, err)
	}
	return nil
}

// Close はチャネルとコネクションを閉じる
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ PublisherInterface = (*Publisher)(nil)
