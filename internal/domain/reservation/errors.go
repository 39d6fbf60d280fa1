package reservation

import "errors"

// 座席割当ドメインのエラー定義
var (
	ErrEmptyBatch              = errors.New("変更リクエストが空です")
	ErrUnclassifiableRequest   = errors.New("参加者IDと旧参加者IDの両方が未指定です")
	ErrSeatIDRequired          = errors.New("座席IDは必須です")
	ErrReservationIDRequired   = errors.New("割当の解除・付け替えには座席割当IDが必要です")
	ErrReservationIDNotAllowed = errors.New("新規割当に座席割当IDは指定できません")
	ErrDuplicateReservation    = errors.New("同じ座席割当が複数回指定されています")
	ErrDuplicateSeat           = errors.New("同じ座席が複数回割当先に指定されています")
	ErrReservationNotFound     = errors.New("座席割当が見つかりません")
	ErrSeatBlocked             = errors.New("座席はブロックされています")

	// 以下は一括操作の影響行数の不一致（競合）を表す
	ErrSeatsAlreadyReserved = errors.New("一つ以上の座席が既に割り当てられているか、ブロックされています")
	ErrReleaseMismatch      = errors.New("座席割当IDと参加者・座席が一致しないか、既に解除されています")
	ErrReassignmentMismatch = errors.New("座席割当IDと旧参加者が一致しないか、既に変更されています")
	ErrSeatOccupied         = errors.New("付け替え先の座席は既に割り当てられています")
)
