package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound    = errors.New("座席が見つかりません")
	ErrSeatDuplicated  = errors.New("同じ位置の座席が既に存在します")
	ErrSectionRequired = errors.New("セクションは必須です")
	ErrRowRequired     = errors.New("列は必須です")
	ErrInvalidNumber   = errors.New("座席番号は1以上である必要があります")
)
