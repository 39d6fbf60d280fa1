package seat

import (
	"fmt"
	"time"
)

// Seat は座席エンティティを表す
// 座席そのものはイベントに依存しない。どのイベントで誰が使うかは座席割当が持つ
type Seat struct {
	ID        string
	Section   string
	Row       string
	Number    int
	CreatedAt time.Time
}

// NewSeat は新しい座席を作成する
func NewSeat(section, row string, number int) *Seat {
	return &Seat{
		Section:   section,
		Row:       row,
		Number:    number,
		CreatedAt: time.Now(),
	}
}

// Label は表示用の座席ラベル（例: "1F-A-12"）を返す
func (s *Seat) Label() string {
	return fmt.Sprintf("%s-%s-%d", s.Section, s.Row, s.Number)
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.Section == "" {
		return ErrSectionRequired
	}
	if s.Row == "" {
		return ErrRowRequired
	}
	if s.Number <= 0 {
		return ErrInvalidNumber
	}
	return nil
}
