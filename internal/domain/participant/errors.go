package participant

import "errors"

// Participant ドメインのエラー定義
var (
	ErrParticipantNotFound   = errors.New("参加者が見つかりません")
	ErrParticipantNotInEvent = errors.New("参加者は対象イベントに登録されていません")
	ErrAlreadyRegistered     = errors.New("同じメールアドレスの参加者が既に登録されています")
	ErrEventIDRequired       = errors.New("イベントIDは必須です")
	ErrNameRequired          = errors.New("参加者名は必須です")
)
