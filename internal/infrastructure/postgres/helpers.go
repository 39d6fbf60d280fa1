package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
)

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.Storage("影響行数の確認", err)
	}
	return n, nil
}

type eventCountRow struct {
	EventID string `db:"event_id"`
	Count   int    `db:"count"`
}

// countByEvent は event_id ごとの件数を集計するクエリを実行する
func countByEvent(ctx context.Context, db *sqlx.DB, query string) (map[string]int, error) {
	var rows []eventCountRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperror.Storage("イベント別件数の集計", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	return counts, nil
}
