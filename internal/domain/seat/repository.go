package seat

import "context"

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// Create は新しい座席を作成する
	Create(ctx context.Context, seat *Seat) error

	// CreateBulk は複数の座席を一括作成する
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id string) (*Seat, error)

	// List は座席一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Seat, error)

	// Exists は座席が存在するかを返す
	Exists(ctx context.Context, id string) (bool, error)

	// FindExisting は指定IDのうち存在する座席IDのみを返す
	FindExisting(ctx context.Context, ids []string) ([]string, error)
}
