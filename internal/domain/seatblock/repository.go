package seatblock

import "context"

// Repository は座席ブロックリポジトリのインターフェース
type Repository interface {
	// Exists は (eventID, seatID) のブロックが存在するかを返す
	Exists(ctx context.Context, eventID, seatID string) (bool, error)

	// Insert はブロックを作成する。既に存在する場合は何もせず false を返す
	Insert(ctx context.Context, block *SeatBlock) (bool, error)

	// DeleteByEventAndSeat はブロックを削除する。存在しなかった場合は false を返す
	DeleteByEventAndSeat(ctx context.Context, eventID, seatID string) (bool, error)

	// FindBlockedSeats は seatIDs のうちイベント内でブロックされている座席IDを返す
	FindBlockedSeats(ctx context.Context, eventID string, seatIDs []string) ([]string, error)

	// ListByEvent はイベントのブロック一覧を取得する
	ListByEvent(ctx context.Context, eventID string) ([]*SeatBlock, error)

	// CountByEvent はイベントごとのブロック数を返す
	CountByEvent(ctx context.Context) (map[string]int, error)
}
