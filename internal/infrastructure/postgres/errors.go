package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgreSQLのエラーコード
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// pqCode はドライバーエラーからSQLSTATEを取り出す
func pqCode(err error) string {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == foreignKeyViolation
}

// isUUID はUUID列と比較できる文字列かを返す
// UUIDとして解釈できないIDは常に「存在しない」として扱う
func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}

// uuidsOnly はUUIDとして解釈できるIDのみを残す
func uuidsOnly(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			out = append(out, id)
		}
	}
	return out
}
