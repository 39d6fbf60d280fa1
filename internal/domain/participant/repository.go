package participant

import "context"

// Repository は参加者リポジトリのインターフェース
type Repository interface {
	// Create は参加者を登録する
	Create(ctx context.Context, p *Participant) error

	// GetByID はIDから参加者を取得する
	GetByID(ctx context.Context, id string) (*Participant, error)

	// FindByIDs は複数IDの参加者をまとめて取得する（存在しないIDは結果に含まれない）
	FindByIDs(ctx context.Context, ids []string) ([]*Participant, error)

	// ListByEvent はイベントの参加者一覧を取得する
	ListByEvent(ctx context.Context, eventID string) ([]*Participant, error)
}
