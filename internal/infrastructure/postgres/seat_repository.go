package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
)

type seatRow struct {
	ID        string    `db:"id"`
	Section   string    `db:"section"`
	Row       string    `db:"seat_row"`
	Number    int       `db:"number"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, Section: r.Section, Row: r.Row, Number: r.Number, CreatedAt: r.CreatedAt,
	}
}

const seatColumns = `id, section, seat_row, number, created_at`

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) Create(ctx context.Context, s *seat.Seat) error {
	query := `INSERT INTO seats (section, seat_row, number, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, s.Section, s.Row, s.Number, s.CreatedAt).Scan(&s.ID); err != nil {
		if isUniqueViolation(err) {
			return seat.ErrSeatDuplicated
		}
		return apperror.Storage("座席作成", err)
	}
	return nil
}

func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Storage("トランザクション開始", err)
	}
	defer tx.Rollback()

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := min(i+batchSize, len(seats))
		if err := r.createBulkBatch(ctx, tx, seats[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperror.Storage("座席一括作成のコミット", err)
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行し、採番されたIDを書き戻す
func (r *SeatRepository) createBulkBatch(ctx context.Context, tx *sqlx.Tx, seats []*seat.Seat) error {
	const cols = 4
	query := `INSERT INTO seats (section, seat_row, number, created_at) VALUES `
	args := make([]any, 0, len(seats)*cols)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4))
		args = append(args, s.Section, s.Row, s.Number, s.CreatedAt)
	}

	// RETURNING の順序はVALUESの順序と一致する
	query += strings.Join(placeholders, ", ") + ` RETURNING id`
	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
		if isUniqueViolation(err) {
			return seat.ErrSeatDuplicated
		}
		return apperror.Storage("座席一括作成", err)
	}
	for i, id := range ids {
		seats[i].ID = id
	}
	return nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	if !isUUID(id) {
		return nil, seat.ErrSeatNotFound
	}
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`
	var row seatRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, apperror.Storage("座席取得", err)
	}
	return row.toEntity(), nil
}

func (r *SeatRepository) List(ctx context.Context, limit, offset int) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats ORDER BY section, seat_row, number LIMIT $1 OFFSET $2`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, apperror.Storage("座席一覧取得", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

func (r *SeatRepository) Exists(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM seats WHERE id = $1)`, id); err != nil {
		return false, apperror.Storage("座席存在確認", err)
	}
	return exists, nil
}

func (r *SeatRepository) FindExisting(ctx context.Context, ids []string) ([]string, error) {
	ids = uuidsOnly(ids)
	if len(ids) == 0 {
		return []string{}, nil
	}
	var found []string
	if err := r.db.SelectContext(ctx, &found, `SELECT id FROM seats WHERE id = ANY($1::uuid[])`, pq.Array(ids)); err != nil {
		return nil, apperror.Storage("座席一括存在確認", err)
	}
	return found, nil
}

var _ seat.Repository = (*SeatRepository)(nil)
