package seatblock

import "errors"

// SeatBlock ドメインのエラー定義
var (
	ErrEmptyToggles = errors.New("ブロック切替リクエストが空です")
)
