package application

import (
	"github.com/google/uuid"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
)

// canonicalID はUUIDとして解釈できるIDを小文字・ハイフン区切りの形式にそろえる
// DBから読み戻したIDやキャッシュキーとの比較は常にこの形式で行う
// UUIDとして解釈できないIDはそのまま返し、後続の参照確認で「存在しない」になる
func canonicalID(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return u.String()
}

// canonicalChanges は変更リクエストのIDをすべて canonicalID でそろえた複製を返す
func canonicalChanges(changes []reservation.ChangeRequest) []reservation.ChangeRequest {
	out := make([]reservation.ChangeRequest, len(changes))
	for i, c := range changes {
		out[i] = reservation.ChangeRequest{
			ReservationID:    canonicalID(c.ReservationID),
			SeatID:           canonicalID(c.SeatID),
			ParticipantID:    canonicalID(c.ParticipantID),
			OldParticipantID: canonicalID(c.OldParticipantID),
		}
	}
	return out
}
