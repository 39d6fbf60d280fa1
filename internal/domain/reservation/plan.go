package reservation

import "fmt"

// Assignment は新規割当（insert）
type Assignment struct {
	SeatID        string
	ParticipantID string
}

// Release は割当の解除（delete）。ReservationID と直前の保持者の組で特定する
// SeatID が指定されていれば、その座席を占有している割当に限る
type Release struct {
	ReservationID string
	SeatID        string
	ParticipantID string
}

// Reassignment は既存割当の付け替え（update）
type Reassignment struct {
	ReservationID    string
	SeatID           string
	ParticipantID    string
	OldParticipantID string
}

// Plan は一括変更を種別ごとに分割した結果。生成後は変更しない
type Plan struct {
	Inserts []Assignment
	Deletes []Release
	Updates []Reassignment
}

// NewPlan はリクエストを検証し、insert / delete / update に分割する
// 1件でも不正なリクエストがあれば Plan は返さない
func NewPlan(requests []ChangeRequest) (*Plan, error) {
	if len(requests) == 0 {
		return nil, ErrEmptyBatch
	}

	var (
		inserts []Assignment
		deletes []Release
		updates []Reassignment
	)
	seenReservations := make(map[string]int, len(requests))
	seenSeats := make(map[string]int, len(requests))

	for i, req := range requests {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("リクエスト[%d]: %w", i, err)
		}
		if req.ReservationID != "" {
			if prev, dup := seenReservations[req.ReservationID]; dup {
				return nil, fmt.Errorf("リクエスト[%d]とリクエスト[%d]: %w", prev, i, ErrDuplicateReservation)
			}
			seenReservations[req.ReservationID] = i
		}

		switch req.Kind() {
		case KindInsert, KindUpdate:
			if prev, dup := seenSeats[req.SeatID]; dup {
				return nil, fmt.Errorf("リクエスト[%d]とリクエスト[%d]: %w", prev, i, ErrDuplicateSeat)
			}
			seenSeats[req.SeatID] = i
		}

		switch req.Kind() {
		case KindInsert:
			inserts = append(inserts, Assignment{SeatID: req.SeatID, ParticipantID: req.ParticipantID})
		case KindDelete:
			deletes = append(deletes, Release{ReservationID: req.ReservationID, SeatID: req.SeatID, ParticipantID: req.OldParticipantID})
		case KindUpdate:
			updates = append(updates, Reassignment{
				ReservationID:    req.ReservationID,
				SeatID:           req.SeatID,
				ParticipantID:    req.ParticipantID,
				OldParticipantID: req.OldParticipantID,
			})
		}
	}

	return &Plan{Inserts: inserts, Deletes: deletes, Updates: updates}, nil
}

// Size はプラン全体の件数を返す
func (p *Plan) Size() int {
	return len(p.Inserts) + len(p.Deletes) + len(p.Updates)
}

// ParticipantIDs は新旧を問わずプランが参照する参加者IDを重複なしで返す
func (p *Plan) ParticipantIDs() []string {
	ids := newIDSet()
	for _, a := range p.Inserts {
		ids.add(a.ParticipantID)
	}
	for _, r := range p.Deletes {
		ids.add(r.ParticipantID)
	}
	for _, u := range p.Updates {
		ids.add(u.ParticipantID)
		ids.add(u.OldParticipantID)
	}
	return ids.list
}

// SeatIDs はプランが参照する座席IDを返す。解除で指定された座席も含む
func (p *Plan) SeatIDs() []string {
	ids := newIDSet()
	for _, id := range p.TargetSeatIDs() {
		ids.add(id)
	}
	for _, r := range p.Deletes {
		if r.SeatID != "" {
			ids.add(r.SeatID)
		}
	}
	return ids.list
}

// TargetSeatIDs は新規割当・付け替えの割り当て先の座席IDを返す
func (p *Plan) TargetSeatIDs() []string {
	ids := newIDSet()
	for _, a := range p.Inserts {
		ids.add(a.SeatID)
	}
	for _, u := range p.Updates {
		ids.add(u.SeatID)
	}
	return ids.list
}

// ReservationIDs は解除・付け替え対象の座席割当IDを返す
func (p *Plan) ReservationIDs() []string {
	ids := newIDSet()
	for _, r := range p.Deletes {
		ids.add(r.ReservationID)
	}
	for _, u := range p.Updates {
		ids.add(u.ReservationID)
	}
	return ids.list
}

// idSet は挿入順を保った重複なし集合
type idSet struct {
	seen map[string]struct{}
	list []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{})}
}

func (s *idSet) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.list = append(s.list, id)
}
