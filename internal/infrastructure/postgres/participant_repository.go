package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
)

type participantRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	Name      string    `db:"name"`
	Email     *string   `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *participantRow) toEntity() *participant.Participant {
	var email string
	if r.Email != nil {
		email = *r.Email
	}
	return &participant.Participant{
		ID: r.ID, EventID: r.EventID, Name: r.Name, Email: email, CreatedAt: r.CreatedAt,
	}
}

const participantColumns = `id, event_id, name, email, created_at`

// ParticipantRepository は参加者リポジトリのPostgreSQL実装
type ParticipantRepository struct{ db *sqlx.DB }

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	var email *string
	if p.Email != "" {
		email = &p.Email
	}
	query := `INSERT INTO participants (event_id, name, email, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, p.EventID, p.Name, email, p.CreatedAt).Scan(&p.ID); err != nil {
		switch {
		case isUniqueViolation(err):
			return participant.ErrAlreadyRegistered
		case isForeignKeyViolation(err):
			return event.ErrEventNotFound
		}
		return apperror.Storage("参加者登録", err)
	}
	return nil
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*participant.Participant, error) {
	if !isUUID(id) {
		return nil, participant.ErrParticipantNotFound
	}
	var row participantRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, participant.ErrParticipantNotFound
		}
		return nil, apperror.Storage("参加者取得", err)
	}
	return row.toEntity(), nil
}

func (r *ParticipantRepository) FindByIDs(ctx context.Context, ids []string) ([]*participant.Participant, error) {
	ids = uuidsOnly(ids)
	if len(ids) == 0 {
		return []*participant.Participant{}, nil
	}
	var rows []participantRow
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, apperror.Storage("参加者一括取得", err)
	}
	result := make([]*participant.Participant, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]*participant.Participant, error) {
	if !isUUID(eventID) {
		return []*participant.Participant{}, nil
	}
	var rows []participantRow
	query := `SELECT ` + participantColumns + ` FROM participants WHERE event_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, apperror.Storage("参加者一覧取得", err)
	}
	result := make([]*participant.Participant, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

var _ participant.Repository = (*ParticipantRepository)(nil)
