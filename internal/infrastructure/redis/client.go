package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-event-seat-assignment/internal/config"
)

// clientName は CLIENT LIST で接続元を識別するための名前
const clientName = "seat-assignment"

// NewClient はスナップショットキャッシュと分散ロック用のRedisクライアントを作成する
// 操作タイムアウトは読み書きの両方に使う。キャッシュが遅い場合はDBにフォールバックする
func NewClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OperationTimeout,
		WriteTimeout: cfg.OperationTimeout,
	})
}

// Ping は起動時とヘルスチェックでRedisへの疎通を確認する
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis %s への接続に失敗しました: %w", client.Options().Addr, err)
	}
	return nil
}
