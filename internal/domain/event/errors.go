package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound     = errors.New("イベントが見つかりません")
	ErrEventNameRequired = errors.New("イベント名は必須です")
	ErrInvalidEventTime  = errors.New("終了時刻は開始時刻より後である必要があります")
)
