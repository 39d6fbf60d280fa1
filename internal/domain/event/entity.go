package event

import "time"

// Event はイベントエンティティを表す
// 座席割当・ブロックはイベントに従属し、イベント削除時に連鎖削除される
type Event struct {
	ID        string
	Name      string
	Venue     string
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEvent は新しいイベントを作成する
func NewEvent(name, venue string, startAt, endAt time.Time) *Event {
	now := time.Now()
	return &Event{
		Name:      name,
		Venue:     venue,
		StartAt:   startAt,
		EndAt:     endAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	if e.EndAt.Before(e.StartAt) {
		return ErrInvalidEventTime
	}
	return nil
}
