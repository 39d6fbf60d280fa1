package rabbitmq

import "time"

// ルーティングキー
const (
	RoutingReservationsReconciled = "seat.reservations.reconciled"
	RoutingSeatBlocksToggled      = "seat.blocks.toggled"
)

// ReservationsReconciled は座席割当の一括変更がコミットされたことを通知する
type ReservationsReconciled struct {
	EventID    string    `json:"event_id"`
	Inserted   int       `json:"inserted"`
	Deleted    int       `json:"deleted"`
	Updated    int       `json:"updated"`
	Total      int       `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SeatBlocksToggled は座席ブロックの切替結果を通知する
type SeatBlocksToggled struct {
	EventID    string    `json:"event_id"`
	Blocked    []string  `json:"blocked"`
	Unblocked  []string  `json:"unblocked"`
	Skipped    []string  `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}
