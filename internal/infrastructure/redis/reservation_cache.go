package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
)

var (
	ErrCacheMiss     = errors.New("キャッシュが見つかりません")
	ErrStaleSnapshot = errors.New("読み取り後にキャッシュが無効化されたため保存しません")
)

// 無効化の世代番号の保持期間
const generationTTL = 24 * time.Hour

// setIfGenerationScript は世代番号が読み取り時から変わっていない場合のみ一覧を保存する
// KEYS[1]: 一覧, KEYS[2]: 世代番号, ARGV[1]: 読み取り時の世代番号, ARGV[2]: 一覧, ARGV[3]: TTL(ms)
const setIfGenerationScript = `
local current = redis.call("GET", KEYS[2])
if (current or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

// ReservationCacheInterface はイベントの座席割当一覧のキャッシュ
//
// 一覧はDBから読む前に Generation で世代番号を取得し、その番号を付けて Set する。
// 間に Invalidate が走っていれば Set は ErrStaleSnapshot を返し、古い一覧は保存されない。
type ReservationCacheInterface interface {
	Get(ctx context.Context, eventID string) ([]*reservation.Reservation, error)
	Generation(ctx context.Context, eventID string) (int64, error)
	Set(ctx context.Context, eventID string, generation int64, reservations []*reservation.Reservation) error
	Invalidate(ctx context.Context, eventID string) error
}

// cachedReservation はキャッシュに保存する形式
type cachedReservation struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	SeatID        string    `json:"seat_id"`
	ParticipantID string    `json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReservationCache はイベントごとの座席割当一覧をJSONで保持する
type ReservationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReservationCache は新しいReservationCacheインスタンスを作成する
func NewReservationCache(client *redis.Client, ttl time.Duration) *ReservationCache {
	return &ReservationCache{client: client, ttl: ttl}
}

// Get はイベントの座席割当一覧をキャッシュから取得する
func (c *ReservationCache) Get(ctx context.Context, eventID string) ([]*reservation.Reservation, error) {
	data, err := c.client.Get(ctx, c.key(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var cached []cachedReservation
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(cached))
	for i, r := range cached {
		result[i] = &reservation.Reservation{
			ID: r.ID, EventID: r.EventID, SeatID: r.SeatID, ParticipantID: r.ParticipantID,
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}
	}
	return result, nil
}

// Generation はイベントのキャッシュの世代番号を返す。一度も無効化されていなければ 0
func (c *ReservationCache) Generation(ctx context.Context, eventID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(eventID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return gen, nil
}

// Set は世代番号が generation のままであればイベントの座席割当一覧を保存する
func (c *ReservationCache) Set(ctx context.Context, eventID string, generation int64, reservations []*reservation.Reservation) error {
	cached := make([]cachedReservation, len(reservations))
	for i, r := range reservations {
		cached[i] = cachedReservation{
			ID: r.ID, EventID: r.EventID, SeatID: r.SeatID, ParticipantID: r.ParticipantID,
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("キャッシュの変換に失敗: %w", err)
	}

	stored, err := c.client.Eval(ctx, setIfGenerationScript,
		[]string{c.key(eventID), c.generationKey(eventID)},
		generation, string(data), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	if stored == 0 {
		return ErrStaleSnapshot
	}
	return nil
}

// Invalidate は世代番号を進めてからイベントのキャッシュを削除する
func (c *ReservationCache) Invalidate(ctx context.Context, eventID string) error {
	genKey := c.generationKey(eventID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, c.key(eventID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *ReservationCache) key(eventID string) string {
	return fmt.Sprintf("seat-assignment:reservations:%s", eventID)
}

func (c *ReservationCache) generationKey(eventID string) string {
	return fmt.Sprintf("seat-assignment:reservations:%s:generation", eventID)
}

var _ ReservationCacheInterface = (*ReservationCache)(nil)
