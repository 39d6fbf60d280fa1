package event

import "context"

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// Exists はイベントが存在するかを返す
	Exists(ctx context.Context, id string) (bool, error)

	// List はイベント一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// Delete はイベントを削除する（座席割当・ブロック・参加者も連鎖削除）
	Delete(ctx context.Context, id string) error
}
