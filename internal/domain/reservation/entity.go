package reservation

import "time"

// Reservation は座席割当（あるイベントのある座席をある参加者が占有している状態）を表す
// (EventID, SeatID) はイベント内で一意。ID は割当の付け替え後も変わらない
type Reservation struct {
	ID            string
	EventID       string
	SeatID        string
	ParticipantID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Kind は変更リクエストの種別
type Kind int

const (
	KindInvalid Kind = iota
	KindInsert
	KindDelete
	KindUpdate
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	case KindUpdate:
		return "update"
	default:
		return "invalid"
	}
}

// ChangeRequest は一括変更の1件分。空文字列は「指定なし」を表す
type ChangeRequest struct {
	ReservationID    string
	SeatID           string
	ParticipantID    string
	OldParticipantID string
}

// Kind は ParticipantID / OldParticipantID の有無から種別を導出する
//
//	新 あり / 旧 なし → insert
//	新 なし / 旧 あり → delete
//	新 あり / 旧 あり → update
//	新 なし / 旧 なし → invalid
func (r ChangeRequest) Kind() Kind {
	hasNew := r.ParticipantID != ""
	hasOld := r.OldParticipantID != ""
	switch {
	case hasNew && !hasOld:
		return KindInsert
	case !hasNew && hasOld:
		return KindDelete
	case hasNew && hasOld:
		return KindUpdate
	default:
		return KindInvalid
	}
}

// Validate は種別ごとの必須項目を検証する
func (r ChangeRequest) Validate() error {
	switch r.Kind() {
	case KindInsert:
		if r.SeatID == "" {
			return ErrSeatIDRequired
		}
		if r.ReservationID != "" {
			return ErrReservationIDNotAllowed
		}
	case KindDelete:
		if r.ReservationID == "" {
			return ErrReservationIDRequired
		}
	case KindUpdate:
		if r.ReservationID == "" {
			return ErrReservationIDRequired
		}
		if r.SeatID == "" {
			return ErrSeatIDRequired
		}
	default:
		return ErrUnclassifiableRequest
	}
	return nil
}
