package application

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seatblock"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/transaction"
	"github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/rabbitmq"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventRepository implements event.Repository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, e *event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockParticipantRepository implements participant.Repository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, id string) (*participant.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*participant.Participant), args.Error(1)
}

func (m *MockParticipantRepository) FindByIDs(ctx context.Context, ids []string) ([]*participant.Participant, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*participant.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]*participant.Participant, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*participant.Participant), args.Error(1)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) Create(ctx context.Context, s *seat.Seat) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	args := m.Called(ctx, seats)
	return args.Error(0)
}

func (m *MockSeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) List(ctx context.Context, limit, offset int) ([]*seat.Seat, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatRepository) FindExisting(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) InsertBatch(ctx context.Context, tx transaction.Tx, eventID string, items []reservation.Assignment) (int64, error) {
	args := m.Called(ctx, tx, eventID, items)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) DeleteBatch(ctx context.Context, tx transaction.Tx, eventID string, items []reservation.Release) (int64, error) {
	args := m.Called(ctx, tx, eventID, items)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) UpdateBatch(ctx context.Context, tx transaction.Tx, eventID string, items []reservation.Reassignment) (int64, error) {
	args := m.Called(ctx, tx, eventID, items)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) FindByIDs(ctx context.Context, eventID string, ids []string) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, eventID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByEvent(ctx context.Context, eventID string) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByEventTx(ctx context.Context, tx transaction.Tx, eventID string) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, tx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountByEvent(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// MockSeatBlockRepository implements seatblock.Repository
type MockSeatBlockRepository struct {
	mock.Mock
}

func (m *MockSeatBlockRepository) Exists(ctx context.Context, eventID, seatID string) (bool, error) {
	args := m.Called(ctx, eventID, seatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatBlockRepository) Insert(ctx context.Context, b *seatblock.SeatBlock) (bool, error) {
	args := m.Called(ctx, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatBlockRepository) DeleteByEventAndSeat(ctx context.Context, eventID, seatID string) (bool, error) {
	args := m.Called(ctx, eventID, seatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatBlockRepository) ListByEvent(ctx context.Context, eventID string) ([]*seatblock.SeatBlock, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seatblock.SeatBlock), args.Error(1)
}

func (m *MockSeatBlockRepository) FindBlockedSeats(ctx context.Context, eventID string, seatIDs []string) ([]string, error) {
	args := m.Called(ctx, eventID, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSeatBlockRepository) CountByEvent(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// MockReservationCache implements redis.ReservationCacheInterface
type MockReservationCache struct {
	mock.Mock
}

func (m *MockReservationCache) Get(ctx context.Context, eventID string) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationCache) Generation(ctx context.Context, eventID string) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationCache) Set(ctx context.Context, eventID string, generation int64, list []*reservation.Reservation) error {
	args := m.Called(ctx, eventID, generation, list)
	return args.Error(0)
}

func (m *MockReservationCache) Invalidate(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// MockPublisher implements rabbitmq.PublisherInterface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishReservationsReconciled(ctx context.Context, msg rabbitmq.ReservationsReconciled) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPublisher) PublishSeatBlocksToggled(ctx context.Context, msg rabbitmq.SeatBlocksToggled) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
