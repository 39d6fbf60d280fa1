package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seatblock"
)

type seatBlockRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	SeatID    string    `db:"seat_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *seatBlockRow) toEntity() *seatblock.SeatBlock {
	return &seatblock.SeatBlock{ID: r.ID, EventID: r.EventID, SeatID: r.SeatID, CreatedAt: r.CreatedAt}
}

// SeatBlockRepository は座席ブロックリポジトリのPostgreSQL実装
type SeatBlockRepository struct{ db *sqlx.DB }

func NewSeatBlockRepository(db *sqlx.DB) *SeatBlockRepository {
	return &SeatBlockRepository{db: db}
}

func (r *SeatBlockRepository) Exists(ctx context.Context, eventID, seatID string) (bool, error) {
	if !isUUID(eventID) || !isUUID(seatID) {
		return false, nil
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM seat_blocks WHERE event_id = $1 AND seat_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, eventID, seatID); err != nil {
		return false, apperror.Storage("座席ブロック存在確認", err)
	}
	return exists, nil
}

func (r *SeatBlockRepository) Insert(ctx context.Context, b *seatblock.SeatBlock) (bool, error) {
	query := `
		INSERT INTO seat_blocks (event_id, seat_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, seat_id) DO NOTHING
		RETURNING id
	`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, b.EventID, b.SeatID, b.CreatedAt); err != nil {
		return false, apperror.Storage("座席ブロック作成", err)
	}
	if len(ids) == 0 {
		return false, nil
	}
	b.ID = ids[0]
	return true, nil
}

func (r *SeatBlockRepository) DeleteByEventAndSeat(ctx context.Context, eventID, seatID string) (bool, error) {
	if !isUUID(eventID) || !isUUID(seatID) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM seat_blocks WHERE event_id = $1 AND seat_id = $2`, eventID, seatID)
	if err != nil {
		return false, apperror.Storage("座席ブロック削除", err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SeatBlockRepository) FindBlockedSeats(ctx context.Context, eventID string, seatIDs []string) ([]string, error) {
	seatIDs = uuidsOnly(seatIDs)
	if len(seatIDs) == 0 || !isUUID(eventID) {
		return []string{}, nil
	}
	var blocked []string
	query := `SELECT seat_id FROM seat_blocks WHERE event_id = $1 AND seat_id = ANY($2::uuid[])`
	if err := r.db.SelectContext(ctx, &blocked, query, eventID, pq.Array(seatIDs)); err != nil {
		return nil, apperror.Storage("ブロック中の座席の確認", err)
	}
	return blocked, nil
}

func (r *SeatBlockRepository) ListByEvent(ctx context.Context, eventID string) ([]*seatblock.SeatBlock, error) {
	if !isUUID(eventID) {
		return []*seatblock.SeatBlock{}, nil
	}
	var rows []seatBlockRow
	query := `SELECT id, event_id, seat_id, created_at FROM seat_blocks WHERE event_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, apperror.Storage("座席ブロック一覧取得", err)
	}
	result := make([]*seatblock.SeatBlock, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *SeatBlockRepository) CountByEvent(ctx context.Context) (map[string]int, error) {
	return countByEvent(ctx, r.db, `SELECT event_id, COUNT(*) AS count FROM seat_blocks GROUP BY event_id`)
}

var _ seatblock.Repository = (*SeatBlockRepository)(nil)
