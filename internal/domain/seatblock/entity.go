package seatblock

import "time"

// SeatBlock は管理者による座席の押さえ（参加者なし）を表す
// (EventID, SeatID) につき高々1件
type SeatBlock struct {
	ID        string
	EventID   string
	SeatID    string
	CreatedAt time.Time
}

// NewSeatBlock は新しいブロックを作成する
func NewSeatBlock(eventID, seatID string) *SeatBlock {
	return &SeatBlock{
		EventID:   eventID,
		SeatID:    seatID,
		CreatedAt: time.Now(),
	}
}

// Toggle はブロック状態の反転要求。ブロック済みなら解除、未ブロックならブロックする
type Toggle struct {
	SeatID string
}

// Action はトグル1件の処理結果
type Action string

const (
	ActionBlocked   Action = "blocked"
	ActionUnblocked Action = "unblocked"
	ActionSkipped   Action = "skipped"
)
