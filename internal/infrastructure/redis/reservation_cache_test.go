package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
)

func TestReservationCache(t *testing.T) {
	ctx := context.Background()
	eventID := "event-1"
	key := "seat-assignment:reservations:event-1"
	genKey := "seat-assignment:reservations:event-1:generation"
	ttl := 30 * time.Second
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	list := []*reservation.Reservation{
		{ID: "r1", EventID: eventID, SeatID: "s1", ParticipantID: "p1", CreatedAt: now, UpdatedAt: now},
		{ID: "r2", EventID: eventID, SeatID: "s2", ParticipantID: "p2", CreatedAt: now, UpdatedAt: now},
	}
	payload, err := json.Marshal([]cachedReservation{
		{ID: "r1", EventID: eventID, SeatID: "s1", ParticipantID: "p1", CreatedAt: now, UpdatedAt: now},
		{ID: "r2", EventID: eventID, SeatID: "s2", ParticipantID: "p2", CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)

	t.Run("キャッシュミス時はErrCacheMissを返す", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewReservationCache(client, ttl)
		mock.ExpectGet(key).RedisNil()

		_, err := cache.Get(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("保存した一覧を復元できる", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewReservationCache(client, ttl)
		mock.ExpectEval(setIfGenerationScript, []string{key, genKey}, int64(3), string(payload), int64(30000)).SetVal(int64(1))
		mock.ExpectGet(key).SetVal(string(payload))

		require.NoError(t, cache.Set(ctx, eventID, 3, list))
		got, err := cache.Get(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, list, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("空の一覧も保存できる", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewReservationCache(client, ttl)
		mock.ExpectEval(setIfGenerationScript, []string{key, genKey}, int64(0), "[]", int64(30000)).SetVal(int64(1))

		require.NoError(t, cache.Set(ctx, eventID, 0, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("キャッシュを無効化できる", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewReservationCache(client, ttl)
		mock.ExpectTxPipeline()
		mock.ExpectIncr(genKey).SetVal(4)
		mock.ExpectExpire(genKey, generationTTL).SetVal(true)
		mock.ExpectDel(key).SetVal(1)
		mock.ExpectTxPipelineExec()

		require.NoError(t, cache.Invalidate(ctx, eventID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("読み取り後に無効化された一覧は保存されない", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewReservationCache(client, ttl)
		mock.ExpectGet(genKey).SetVal("3")
		// 読み取り中に別の一括変更が世代を 4 に進めたため、スクリプトは 0 を返す
		mock.ExpectEval(setIfGenerationScript, []string{key, genKey}, int64(3), string(payload), int64(30000)).SetVal(int64(0))

		gen, err := cache.Generation(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), gen)

		err = cache.Set(ctx, eventID, gen, list)
		assert.ErrorIs(t, err, ErrStaleSnapshot)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("一度も無効化されていなければ世代は0", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewReservationCache(client, ttl)
		mock.ExpectGet(genKey).RedisNil()

		gen, err := cache.Generation(ctx, eventID)
		require.NoError(t, err)
		assert.Zero(t, gen)
	})

	t.Run("Redisエラーはキャッシュミスと区別される", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewReservationCache(client, ttl)
		mock.ExpectGet(key).SetErr(errors.New("接続断"))

		_, err := cache.Get(ctx, eventID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	})
}
