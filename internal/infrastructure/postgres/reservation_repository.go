package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/transaction"
)

type reservationRow struct {
	ID            string    `db:"id"`
	EventID       string    `db:"event_id"`
	SeatID        string    `db:"seat_id"`
	ParticipantID string    `db:"participant_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, EventID: r.EventID, SeatID: r.SeatID, ParticipantID: r.ParticipantID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const reservationColumns = `id, event_id, seat_id, participant_id, created_at, updated_at`

const listByEventQuery = `SELECT ` + reservationColumns + ` FROM seat_reservations WHERE event_id = $1 ORDER BY created_at, id`

// ReservationRepository は座席割当リポジトリのPostgreSQL実装
// 一括操作は unnest で配列を行集合に展開し、1文で実行する
type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// InsertBatch は空いている座席にのみ割当を作成する
// 既に埋まっている座席とブロック中の座席の行は挿入されないため、戻り値が要求数より少なくなる
func (r *ReservationRepository) InsertBatch(ctx context.Context, tx transaction.Tx, eventID string, items []reservation.Assignment) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	seatIDs := make([]string, len(items))
	participantIDs := make([]string, len(items))
	for i, it := range items {
		seatIDs[i] = it.SeatID
		participantIDs[i] = it.ParticipantID
	}

	query := `
		INSERT INTO seat_reservations (event_id, seat_id, participant_id, created_at, updated_at)
		SELECT $1::uuid, t.seat_id, t.participant_id, NOW(), NOW()
		FROM unnest($2::uuid[], $3::uuid[]) AS t(seat_id, participant_id)
		WHERE NOT EXISTS (
			SELECT 1 FROM seat_reservations r
			WHERE r.event_id = $1::uuid AND r.seat_id = t.seat_id
		)
		AND NOT EXISTS (
			SELECT 1 FROM seat_blocks b
			WHERE b.event_id = $1::uuid AND b.seat_id = t.seat_id
		)
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, eventID, pq.Array(seatIDs), pq.Array(participantIDs))
	if err != nil {
		// 並行トランザクションが同じ座席を先に確保した
		if isUniqueViolation(err) {
			return 0, reservation.ErrSeatsAlreadyReserved
		}
		return 0, apperror.Storage("座席割当の一括作成", err)
	}
	return rowsAffected(result)
}

// DeleteBatch は (ID, 参加者, 座席) の組が一致する割当を削除する
func (r *ReservationRepository) DeleteBatch(ctx context.Context, tx transaction.Tx, eventID string, items []reservation.Release) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	ids := make([]string, len(items))
	participantIDs := make([]string, len(items))
	seatIDs := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ReservationID
		participantIDs[i] = it.ParticipantID
		seatIDs[i] = it.SeatID
	}

	// 座席未指定の項目は空文字列で渡し、座席の照合を行わない
	query := `
		DELETE FROM seat_reservations AS r
		USING unnest($2::uuid[], $3::uuid[], $4::text[]) AS t(id, participant_id, seat_id)
		WHERE r.event_id = $1 AND r.id = t.id AND r.participant_id = t.participant_id
			AND r.seat_id = COALESCE(NULLIF(t.seat_id, '')::uuid, r.seat_id)
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, eventID, pq.Array(ids), pq.Array(participantIDs), pq.Array(seatIDs))
	if err != nil {
		return 0, apperror.Storage("座席割当の一括解除", err)
	}
	return rowsAffected(result)
}

// UpdateBatch は (ID, 旧参加者) の組が一致する割当の座席と参加者を付け替える
func (r *ReservationRepository) UpdateBatch(ctx context.Context, tx transaction.Tx, eventID string, items []reservation.Reassignment) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	ids := make([]string, len(items))
	seatIDs := make([]string, len(items))
	participantIDs := make([]string, len(items))
	oldParticipantIDs := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ReservationID
		seatIDs[i] = it.SeatID
		participantIDs[i] = it.ParticipantID
		oldParticipantIDs[i] = it.OldParticipantID
	}

	query := `
		UPDATE seat_reservations AS r
		SET seat_id = t.seat_id, participant_id = t.participant_id, updated_at = NOW()
		FROM unnest($2::uuid[], $3::uuid[], $4::uuid[], $5::uuid[])
			AS t(id, seat_id, participant_id, old_participant_id)
		WHERE r.event_id = $1 AND r.id = t.id AND r.participant_id = t.old_participant_id
			AND (r.seat_id = t.seat_id OR NOT EXISTS (
				SELECT 1 FROM seat_blocks b
				WHERE b.event_id = r.event_id AND b.seat_id = t.seat_id
			))
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, eventID,
		pq.Array(ids), pq.Array(seatIDs), pq.Array(participantIDs), pq.Array(oldParticipantIDs),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, reservation.ErrSeatOccupied
		}
		return 0, apperror.Storage("座席割当の一括付け替え", err)
	}
	return rowsAffected(result)
}

func (r *ReservationRepository) FindByIDs(ctx context.Context, eventID string, ids []string) ([]*reservation.Reservation, error) {
	ids = uuidsOnly(ids)
	if len(ids) == 0 || !isUUID(eventID) {
		return []*reservation.Reservation{}, nil
	}
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM seat_reservations WHERE event_id = $1 AND id = ANY($2::uuid[])`
	if err := r.db.SelectContext(ctx, &rows, query, eventID, pq.Array(ids)); err != nil {
		return nil, apperror.Storage("座席割当の一括取得", err)
	}
	return toReservations(rows), nil
}

func (r *ReservationRepository) ListByEvent(ctx context.Context, eventID string) ([]*reservation.Reservation, error) {
	if !isUUID(eventID) {
		return []*reservation.Reservation{}, nil
	}
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, listByEventQuery, eventID); err != nil {
		return nil, apperror.Storage("座席割当一覧取得", err)
	}
	return toReservations(rows), nil
}

// ListByEventTx はコミット前の変更を含めてイベントの全割当を取得する
func (r *ReservationRepository) ListByEventTx(ctx context.Context, tx transaction.Tx, eventID string) ([]*reservation.Reservation, error) {
	if !isUUID(eventID) {
		return []*reservation.Reservation{}, nil
	}
	var rows []reservationRow
	if err := UnwrapTx(tx).SelectContext(ctx, &rows, listByEventQuery, eventID); err != nil {
		return nil, apperror.Storage("座席割当一覧取得", err)
	}
	return toReservations(rows), nil
}

func (r *ReservationRepository) CountByEvent(ctx context.Context) (map[string]int, error) {
	return countByEvent(ctx, r.db, `SELECT event_id, COUNT(*) AS count FROM seat_reservations GROUP BY event_id`)
}

func toReservations(rows []reservationRow) []*reservation.Reservation {
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result
}

var _ reservation.Repository = (*ReservationRepository)(nil)
