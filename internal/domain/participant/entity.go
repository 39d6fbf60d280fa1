package participant

import "time"

// Participant はイベントに登録された参加者を表す
// 座席を保持できるのは自身が登録されたイベントの座席のみ
type Participant struct {
	ID        string
	EventID   string
	Name      string
	Email     string
	CreatedAt time.Time
}

// NewParticipant は新しい参加者を作成する
func NewParticipant(eventID, name, email string) *Participant {
	return &Participant{
		EventID:   eventID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
}

// BelongsTo は参加者が指定イベントに登録されているかを返す
func (p *Participant) BelongsTo(eventID string) bool {
	return p.EventID == eventID
}

// Validate は参加者の検証を行う
func (p *Participant) Validate() error {
	if p.EventID == "" {
		return ErrEventIDRequired
	}
	if p.Name == "" {
		return ErrNameRequired
	}
	return nil
}
