package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

const lockKeyPrefix = "seat-assignment:lock:"

// 所有者確認と削除をアトミックに実行する
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// Lock は取得済みの分散ロック
type Lock interface {
	Release(ctx context.Context) error
}

// LockManagerInterface は分散ロックの取得を抽象化する
type LockManagerInterface interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	manager *LockManager
	key     string
	value   string
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client   *redis.Client
	metrics  *metrics.Metrics
	newToken func() string
}

func NewLockManager(client *redis.Client, m *metrics.Metrics) *LockManager {
	return &LockManager{
		client:   client,
		metrics:  m,
		newToken: uuid.NewString,
	}
}

// AcquireLock はロックを取得する
// 他のプロセスが保持している場合は ErrLockNotAcquired を返す
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (l Lock, err error) {
	start := time.Now()
	defer func() { m.metrics.ObserveLock("acquire", start, err) }()

	lockKey := lockKeyPrefix + key
	lockValue := m.newToken()

	// SetNX を使用してロックを取得（キーが存在しない場合のみ設定）
	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{manager: m, key: lockKey, value: lockValue}, nil
}

// Release はロックを解放する
// TTL切れ後に他者が取得し直していた場合は ErrLockNotOwned を返す
func (l *DistributedLock) Release(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { l.manager.metrics.ObserveLock("release", start, err) }()

	result, err := l.manager.client.Eval(ctx, releaseScript, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

var _ LockManagerInterface = (*LockManager)(nil)
