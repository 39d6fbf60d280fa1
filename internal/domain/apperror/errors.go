// Package apperror はドメイン横断のエラー分類を定義する。
//
// 個別のドメインエラー（座席が見つからない等）はこの分類のいずれかと
// 合成して返す。呼び出し側は errors.Is で分類と原因の両方を判定できる。
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation は入力不正・参照先不明。変更を一切行う前に返される
	ErrValidation = errors.New("入力が不正です")
	// ErrConflict は一括操作の影響行数が要求数に満たなかった（競合・古い参照）
	ErrConflict = errors.New("競合が発生しました")
	// ErrStorage はDB接続やトランザクションの失敗
	ErrStorage = errors.New("ストレージ操作に失敗しました")
)

// Validation は cause を ErrValidation として包む
func Validation(cause error) error {
	return fmt.Errorf("%w: %w", ErrValidation, cause)
}

// Conflict は cause を ErrConflict として包む
func Conflict(cause error) error {
	return fmt.Errorf("%w: %w", ErrConflict, cause)
}

// Storage は op の失敗を ErrStorage として包む
func Storage(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, cause)
}
