package reservation

import (
	"context"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/transaction"
)

// Repository は座席割当リポジトリのインターフェース
// 一括操作はいずれも1文で実行し、実際に影響した行数を返す
type Repository interface {
	// InsertBatch は (eventID, seatID) が空いていて、ブロックされていない座席にのみ割当を作成する（トランザクション必須）
	InsertBatch(ctx context.Context, tx transaction.Tx, eventID string, items []Assignment) (int64, error)

	// DeleteBatch は (ID, 参加者) が一致する割当を削除する（トランザクション必須）
	// SeatID が指定された項目は座席も一致する場合に限る
	DeleteBatch(ctx context.Context, tx transaction.Tx, eventID string, items []Release) (int64, error)

	// UpdateBatch は (ID, 旧参加者) が一致する割当の座席と参加者を付け替える（トランザクション必須）
	// 付け替え先が埋まっている場合は ErrSeatOccupied を返す
	// 座席が変わる項目で付け替え先がブロックされている行は更新しない
	UpdateBatch(ctx context.Context, tx transaction.Tx, eventID string, items []Reassignment) (int64, error)

	// FindByIDs はイベント内の指定IDの割当を取得する（存在しないIDは結果に含まれない）
	FindByIDs(ctx context.Context, eventID string, ids []string) ([]*Reservation, error)

	// ListByEvent はイベントの全割当を取得する
	ListByEvent(ctx context.Context, eventID string) ([]*Reservation, error)

	// ListByEventTx はトランザクション内でイベントの全割当を取得する
	ListByEventTx(ctx context.Context, tx transaction.Tx, eventID string) ([]*Reservation, error)

	// CountByEvent はイベントごとの割当数を返す
	CountByEvent(ctx context.Context) (map[string]int, error)
}
