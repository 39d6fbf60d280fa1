package application

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
	"github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/metrics"
)

const (
	testEventID = "event-1"
	testP1      = "participant-1"
	testP2      = "participant-2"
	testS1      = "seat-1"
	testS2      = "seat-2"
	testR7      = "reservation-7"
)

type reservationMocks struct {
	txManager    *MockTxManager
	tx           *MockTx
	reservations *MockReservationRepository
	events       *MockEventRepository
	participants *MockParticipantRepository
	seats        *MockSeatRepository
	blocks       *MockSeatBlockRepository
	cache        *MockReservationCache
	publisher    *MockPublisher
	metrics      *metrics.Metrics
}

func newReservationServiceForTest() (*ReservationService, *reservationMocks) {
	m := &reservationMocks{
		txManager:    new(MockTxManager),
		tx:           new(MockTx),
		reservations: new(MockReservationRepository),
		events:       new(MockEventRepository),
		participants: new(MockParticipantRepository),
		seats:        new(MockSeatRepository),
		blocks:       new(MockSeatBlockRepository),
		cache:        new(MockReservationCache),
		publisher:    new(MockPublisher),
		metrics:      metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	svc := NewReservationService(m.txManager, m.reservations, m.events, m.participants, m.seats, m.blocks, m.cache, m.publisher, m.metrics)
	return svc, m
}

// expectEvent はイベントが存在する前提を設定する
func (m *reservationMocks) expectEvent() {
	m.events.On("Exists", mock.Anything, testEventID).Return(true, nil)
}

func (m *reservationMocks) expectParticipants(ids []string, ps ...*participant.Participant) {
	m.participants.On("FindByIDs", mock.Anything, ids).Return(ps, nil)
}

// expectNoBlocks は割当先の座席にブロックがない前提を設定する
func (m *reservationMocks) expectNoBlocks() {
	m.blocks.On("FindBlockedSeats", mock.Anything, testEventID, mock.Anything).Return([]string{}, nil)
}

// expectTx はトランザクションの開始を設定する。Rollback は defer で必ず呼ばれる
func (m *reservationMocks) expectTx() {
	m.txManager.On("Begin", mock.Anything).Return(m.tx, nil)
	m.tx.On("Rollback").Return(nil).Maybe()
}

// expectCommitted はトランザクション内の再取得とコミット、コミット後の処理を設定する
func (m *reservationMocks) expectCommitted(result []*reservation.Reservation) {
	m.reservations.On("ListByEventTx", mock.Anything, m.tx, testEventID).Return(result, nil)
	m.tx.On("Commit").Return(nil)
	m.cache.On("Invalidate", mock.Anything, testEventID).Return(nil)
	m.publisher.On("PublishReservationsReconciled", mock.Anything, mock.AnythingOfType("rabbitmq.ReservationsReconciled")).Return(nil)
}

func (m *reservationMocks) assertNothingWritten(t *testing.T) {
	t.Helper()
	m.tx.AssertNotCalled(t, "Commit")
	m.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	m.publisher.AssertNotCalled(t, "PublishReservationsReconciled", mock.Anything, mock.Anything)
}

func (m *reservationMocks) batches(result string) float64 {
	return testutil.ToFloat64(m.metrics.ReservationBatchesTotal.WithLabelValues(result))
}

func p(id string) *participant.Participant {
	return &participant.Participant{ID: id, EventID: testEventID}
}

func TestReservationService_ApplyChanges_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("A: 空席への新規割当", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.expectParticipants([]string{testP1}, p(testP1))
		m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
		m.expectNoBlocks()
		m.expectTx()
		m.reservations.On("InsertBatch", mock.Anything, m.tx, testEventID,
			[]reservation.Assignment{{SeatID: testS1, ParticipantID: testP1}},
		).Return(int64(1), nil)
		want := []*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS1, ParticipantID: testP1}}
		m.expectCommitted(want)

		got, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ParticipantID: testP1, SeatID: testS1}},
		})

		require.NoError(t, err)
		assert.Equal(t, want, got)
		m.tx.AssertExpectations(t)
		m.reservations.AssertExpectations(t)
		m.cache.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
		assert.Equal(t, 1.0, m.batches("success"))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.ReservationChangesTotal.WithLabelValues("insert")))
	})

	t.Run("B: 割当済みの座席への新規割当は競合", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.expectParticipants([]string{testP2}, p(testP2))
		m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
		m.expectNoBlocks()
		m.expectTx()
		m.reservations.On("InsertBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(0), nil)

		got, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ParticipantID: testP2, SeatID: testS1}},
		})

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.ErrorIs(t, err, reservation.ErrSeatsAlreadyReserved)
		m.tx.AssertCalled(t, "Rollback")
		m.assertNothingWritten(t)
		assert.Equal(t, 1.0, m.batches("conflict"))
	})

	t.Run("C: 座席割当の解除", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.expectParticipants([]string{testP1}, p(testP1))
		m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7}).
			Return([]*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS1, ParticipantID: testP1}}, nil)
		m.expectTx()
		m.reservations.On("DeleteBatch", mock.Anything, m.tx, testEventID,
			[]reservation.Release{{ReservationID: testR7, ParticipantID: testP1}},
		).Return(int64(1), nil)
		m.expectCommitted([]*reservation.Reservation{})

		got, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ReservationID: testR7, OldParticipantID: testP1}},
		})

		require.NoError(t, err)
		assert.Empty(t, got)
		m.seats.AssertNotCalled(t, "FindExisting", mock.Anything, mock.Anything)
		m.reservations.AssertExpectations(t)
	})

	t.Run("D: 座席の付け替え", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		// 新旧の参加者が同じ場合は1回だけ問い合わせる
		m.expectParticipants([]string{testP1}, p(testP1))
		m.seats.On("FindExisting", mock.Anything, []string{testS2}).Return([]string{testS2}, nil)
		m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7}).
			Return([]*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS1, ParticipantID: testP1}}, nil)
		m.blocks.On("FindBlockedSeats", mock.Anything, testEventID, []string{testS2}).Return([]string{}, nil)
		m.expectTx()
		m.reservations.On("UpdateBatch", mock.Anything, m.tx, testEventID,
			[]reservation.Reassignment{{ReservationID: testR7, SeatID: testS2, ParticipantID: testP1, OldParticipantID: testP1}},
		).Return(int64(1), nil)
		want := []*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS2, ParticipantID: testP1}}
		m.expectCommitted(want)

		got, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ReservationID: testR7, ParticipantID: testP1, OldParticipantID: testP1, SeatID: testS2}},
		})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, testR7, got[0].ID)
		assert.Equal(t, testS2, got[0].SeatID)
	})

	t.Run("E: 不正なリクエストを含むバッチは全体が拒否される", func(t *testing.T) {
		svc, m := newReservationServiceForTest()

		got, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{
				{ParticipantID: testP1, SeatID: testS1},
				{SeatID: testS2},
			},
		})

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.ErrorIs(t, err, reservation.ErrUnclassifiableRequest)
		m.events.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
		assert.Equal(t, 1.0, m.batches("invalid"))
	})
}

func TestReservationService_ApplyChanges_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	insertS1 := []reservation.ChangeRequest{{ParticipantID: testP1, SeatID: testS1}}

	tests := []struct {
		name    string
		changes []reservation.ChangeRequest
		setup   func(m *reservationMocks)
		cause   error
	}{
		{
			name:    "空のバッチ",
			changes: nil,
			setup:   func(m *reservationMocks) {},
			cause:   reservation.ErrEmptyBatch,
		},
		{
			name:    "存在しないイベント",
			changes: insertS1,
			setup: func(m *reservationMocks) {
				m.events.On("Exists", mock.Anything, testEventID).Return(false, nil)
			},
			cause: event.ErrEventNotFound,
		},
		{
			name:    "存在しない参加者",
			changes: insertS1,
			setup: func(m *reservationMocks) {
				m.expectEvent()
				m.expectParticipants([]string{testP1})
			},
			cause: participant.ErrParticipantNotFound,
		},
		{
			name:    "別イベントの参加者",
			changes: insertS1,
			setup: func(m *reservationMocks) {
				m.expectEvent()
				m.expectParticipants([]string{testP1}, &participant.Participant{ID: testP1, EventID: "event-other"})
			},
			cause: participant.ErrParticipantNotInEvent,
		},
		{
			name:    "存在しない座席",
			changes: insertS1,
			setup: func(m *reservationMocks) {
				m.expectEvent()
				m.expectParticipants([]string{testP1}, p(testP1))
				m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{}, nil)
			},
			cause: seat.ErrSeatNotFound,
		},
		{
			name:    "イベント内に存在しない座席割当",
			changes: []reservation.ChangeRequest{{ReservationID: testR7, OldParticipantID: testP1}},
			setup: func(m *reservationMocks) {
				m.expectEvent()
				m.expectParticipants([]string{testP1}, p(testP1))
				m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7}).Return([]*reservation.Reservation{}, nil)
			},
			cause: reservation.ErrReservationNotFound,
		},
		{
			name: "同じ座席を2回指定",
			changes: []reservation.ChangeRequest{
				{ParticipantID: testP1, SeatID: testS1},
				{ParticipantID: testP2, SeatID: testS1},
			},
			setup: func(m *reservationMocks) {},
			cause: reservation.ErrDuplicateSeat,
		},
		{
			name:    "新規割当に座席割当IDを指定",
			changes: []reservation.ChangeRequest{{ReservationID: testR7, ParticipantID: testP1, SeatID: testS1}},
			setup:   func(m *reservationMocks) {},
			cause:   reservation.ErrReservationIDNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newReservationServiceForTest()
			tt.setup(m)

			got, err := svc.ApplyChanges(ctx, ApplyChangesInput{EventID: testEventID, Changes: tt.changes})

			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.ErrorIs(t, err, tt.cause)
			// 検証エラーはトランザクションを開始する前に返る
			m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
		})
	}
}

func TestReservationService_ApplyChanges_MixedBatch(t *testing.T) {
	ctx := context.Background()
	svc, m := newReservationServiceForTest()

	// 新規割当の座席 S1 は同じバッチの解除で空く
	changes := []reservation.ChangeRequest{
		{ParticipantID: testP2, SeatID: testS1},
		{ReservationID: testR7, OldParticipantID: testP1},
		{ReservationID: "reservation-8", ParticipantID: testP2, OldParticipantID: testP1, SeatID: testS2},
	}

	m.expectEvent()
	m.expectParticipants([]string{testP2, testP1}, p(testP1), p(testP2))
	m.seats.On("FindExisting", mock.Anything, []string{testS1, testS2}).Return([]string{testS2, testS1}, nil)
	m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7, "reservation-8"}).
		Return([]*reservation.Reservation{{ID: "reservation-8", SeatID: testS1}, {ID: testR7, SeatID: testS1}}, nil)
	// 新規割当の S1 と付け替え先の S2 がブロック確認の対象になる
	m.blocks.On("FindBlockedSeats", mock.Anything, testEventID, []string{testS1, testS2}).Return([]string{}, nil)
	m.expectTx()

	del := m.reservations.On("DeleteBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(1), nil)
	upd := m.reservations.On("UpdateBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(1), nil)
	ins := m.reservations.On("InsertBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(1), nil)
	reread := m.reservations.On("ListByEventTx", mock.Anything, m.tx, testEventID).Return([]*reservation.Reservation{}, nil)
	commit := m.tx.On("Commit").Return(nil)
	mock.InOrder(del, upd, ins, reread, commit)

	m.cache.On("Invalidate", mock.Anything, testEventID).Return(nil)
	m.publisher.On("PublishReservationsReconciled", mock.Anything, mock.MatchedBy(func(msg rabbitmq.ReservationsReconciled) bool {
		return msg.EventID == testEventID && msg.Inserted == 1 && msg.Deleted == 1 && msg.Updated == 1
	})).Return(nil)

	_, err := svc.ApplyChanges(ctx, ApplyChangesInput{EventID: testEventID, Changes: changes})

	require.NoError(t, err)
	m.reservations.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.ReservationChangesTotal.WithLabelValues("update")))
}

func TestReservationService_ApplyChanges_Atomicity(t *testing.T) {
	ctx := context.Background()

	updateAndInsert := []reservation.ChangeRequest{
		{ReservationID: testR7, ParticipantID: testP1, OldParticipantID: testP1, SeatID: testS2},
		{ParticipantID: testP2, SeatID: testS1},
	}

	setup := func(m *reservationMocks) {
		m.expectEvent()
		m.expectParticipants([]string{testP2, testP1}, p(testP1), p(testP2))
		m.seats.On("FindExisting", mock.Anything, []string{testS1, testS2}).Return([]string{testS1, testS2}, nil)
		m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7}).
			Return([]*reservation.Reservation{{ID: testR7}}, nil)
		m.expectNoBlocks()
		m.expectTx()
	}

	t.Run("後続の新規割当が競合すると付け替えもロールバックされる", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		setup(m)
		m.reservations.On("UpdateBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(1), nil)
		m.reservations.On("InsertBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(0), nil)

		_, err := svc.ApplyChanges(ctx, ApplyChangesInput{EventID: testEventID, Changes: updateAndInsert})

		assert.ErrorIs(t, err, apperror.ErrConflict)
		m.tx.AssertCalled(t, "Rollback")
		m.assertNothingWritten(t)
	})

	t.Run("付け替え先の一意制約違反は競合", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		setup(m)
		m.reservations.On("UpdateBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(0), reservation.ErrSeatOccupied)

		_, err := svc.ApplyChanges(ctx, ApplyChangesInput{EventID: testEventID, Changes: updateAndInsert})

		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.ErrorIs(t, err, reservation.ErrSeatOccupied)
		m.reservations.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertNothingWritten(t)
	})

	t.Run("旧参加者が一致しない付け替えは競合", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		setup(m)
		m.reservations.On("UpdateBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(0), nil)

		_, err := svc.ApplyChanges(ctx, ApplyChangesInput{EventID: testEventID, Changes: updateAndInsert})

		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.ErrorIs(t, err, reservation.ErrReassignmentMismatch)
		m.assertNothingWritten(t)
	})

	t.Run("ストレージエラーは競合にも検証エラーにもならない", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		setup(m)
		m.reservations.On("UpdateBatch", mock.Anything, m.tx, testEventID, mock.Anything).
			Return(int64(0), apperror.Storage("座席割当の一括付け替え", errors.New("接続断")))

		_, err := svc.ApplyChanges(ctx, ApplyChangesInput{EventID: testEventID, Changes: updateAndInsert})

		assert.ErrorIs(t, err, apperror.ErrStorage)
		assert.NotErrorIs(t, err, apperror.ErrConflict)
		assert.NotErrorIs(t, err, apperror.ErrValidation)
		m.assertNothingWritten(t)
		assert.Equal(t, 1.0, m.batches("error"))
	})
}

func TestReservationService_ApplyChanges_DeleteMismatch(t *testing.T) {
	svc, m := newReservationServiceForTest()
	m.expectEvent()
	m.expectParticipants([]string{testP2}, p(testP2))
	m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7}).Return([]*reservation.Reservation{{ID: testR7}}, nil)
	m.expectTx()
	// 保持者が P1 の割当を P2 として解除しようとした
	m.reservations.On("DeleteBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(0), nil)

	_, err := svc.ApplyChanges(context.Background(), ApplyChangesInput{
		EventID: testEventID,
		Changes: []reservation.ChangeRequest{{ReservationID: testR7, OldParticipantID: testP2}},
	})

	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.ErrorIs(t, err, reservation.ErrReleaseMismatch)
	assert.Contains(t, err.Error(), "要求 1 件, 反映 0 件")
}

func TestReservationService_ApplyChanges_RereadFailureDoesNotCommit(t *testing.T) {
	svc, m := newReservationServiceForTest()
	m.expectEvent()
	m.expectParticipants([]string{testP1}, p(testP1))
	m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
	m.expectNoBlocks()
	m.expectTx()
	m.reservations.On("InsertBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(1), nil)
	m.reservations.On("ListByEventTx", mock.Anything, m.tx, testEventID).
		Return(nil, apperror.Storage("イベント別座席割当の取得", errors.New("接続断")))

	got, err := svc.ApplyChanges(context.Background(), ApplyChangesInput{
		EventID: testEventID,
		Changes: []reservation.ChangeRequest{{ParticipantID: testP1, SeatID: testS1}},
	})

	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperror.ErrStorage)
	assert.Contains(t, err.Error(), "座席割当の再取得に失敗")
	// 失敗を返す以上、変更は残さない
	m.tx.AssertCalled(t, "Rollback")
	m.assertNothingWritten(t)
	assert.Equal(t, 1.0, m.batches("error"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.metrics.ReservationChangesTotal.WithLabelValues("insert")))
}

func TestReservationService_ApplyChanges_CanonicalIDs(t *testing.T) {
	const (
		upperEvent = "3F2504E0-4F89-11D3-9A0C-0305E82C3301"
		lowerEvent = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
		upperSeat  = "6BA7B810-9DAD-11D1-80B4-00C04FD430C8"
		lowerSeat  = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
		upperP     = "{7D444840-9DC0-11D1-B245-5FFDCE74FAD2}"
		lowerP     = "7d444840-9dc0-11d1-b245-5ffdce74fad2"
	)

	svc, m := newReservationServiceForTest()
	m.events.On("Exists", mock.Anything, lowerEvent).Return(true, nil)
	m.participants.On("FindByIDs", mock.Anything, []string{lowerP}).
		Return([]*participant.Participant{{ID: lowerP, EventID: lowerEvent}}, nil)
	// DB は正規形で返すので、問い合わせも正規形で行う
	m.seats.On("FindExisting", mock.Anything, []string{lowerSeat}).Return([]string{lowerSeat}, nil)
	m.blocks.On("FindBlockedSeats", mock.Anything, lowerEvent, []string{lowerSeat}).Return([]string{}, nil)
	m.expectTx()
	m.reservations.On("InsertBatch", mock.Anything, m.tx, lowerEvent,
		[]reservation.Assignment{{SeatID: lowerSeat, ParticipantID: lowerP}},
	).Return(int64(1), nil)
	want := []*reservation.Reservation{{ID: testR7, EventID: lowerEvent, SeatID: lowerSeat, ParticipantID: lowerP}}
	m.reservations.On("ListByEventTx", mock.Anything, m.tx, lowerEvent).Return(want, nil)
	m.tx.On("Commit").Return(nil)
	m.cache.On("Invalidate", mock.Anything, lowerEvent).Return(nil)
	m.publisher.On("PublishReservationsReconciled", mock.Anything, mock.MatchedBy(func(msg rabbitmq.ReservationsReconciled) bool {
		return msg.EventID == lowerEvent
	})).Return(nil)

	got, err := svc.ApplyChanges(context.Background(), ApplyChangesInput{
		EventID: upperEvent,
		Changes: []reservation.ChangeRequest{{ParticipantID: upperP, SeatID: upperSeat}},
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	m.reservations.AssertExpectations(t)
	m.cache.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestReservationService_ApplyChanges_BlockedSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("ブロック中の座席への新規割当は競合", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.expectParticipants([]string{testP1}, p(testP1))
		m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
		m.blocks.On("FindBlockedSeats", mock.Anything, testEventID, []string{testS1}).Return([]string{testS1}, nil)

		got, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ParticipantID: testP1, SeatID: testS1}},
		})

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.ErrorIs(t, err, reservation.ErrSeatBlocked)
		assert.Contains(t, err.Error(), testS1)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
		assert.Equal(t, 1.0, m.batches("conflict"))
	})

	t.Run("ブロック中の座席への付け替えは競合", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.expectParticipants([]string{testP1}, p(testP1))
		m.seats.On("FindExisting", mock.Anything, []string{testS2}).Return([]string{testS2}, nil)
		m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7}).
			Return([]*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS1, ParticipantID: testP1}}, nil)
		m.blocks.On("FindBlockedSeats", mock.Anything, testEventID, []string{testS2}).Return([]string{testS2}, nil)

		_, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ReservationID: testR7, ParticipantID: testP1, OldParticipantID: testP1, SeatID: testS2}},
		})

		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.ErrorIs(t, err, reservation.ErrSeatBlocked)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("座席を変えない参加者の交代はブロックを確認しない", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.expectParticipants([]string{testP2, testP1}, p(testP1), p(testP2))
		m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
		m.reservations.On("FindByIDs", mock.Anything, testEventID, []string{testR7}).
			Return([]*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS1, ParticipantID: testP1}}, nil)
		m.expectTx()
		m.reservations.On("UpdateBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(1), nil)
		m.expectCommitted([]*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS1, ParticipantID: testP2}})

		_, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ReservationID: testR7, ParticipantID: testP2, OldParticipantID: testP1, SeatID: testS1}},
		})

		require.NoError(t, err)
		m.blocks.AssertNotCalled(t, "FindBlockedSeats", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ブロックの確認に失敗したら書き込まない", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.expectParticipants([]string{testP1}, p(testP1))
		m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
		m.blocks.On("FindBlockedSeats", mock.Anything, testEventID, []string{testS1}).Return(nil, errors.New("接続断"))

		_, err := svc.ApplyChanges(ctx, ApplyChangesInput{
			EventID: testEventID,
			Changes: []reservation.ChangeRequest{{ParticipantID: testP1, SeatID: testS1}},
		})

		require.Error(t, err)
		assert.NotErrorIs(t, err, apperror.ErrConflict)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestReservationService_ApplyChanges_AfterCommitFailuresAreIgnored(t *testing.T) {
	svc, m := newReservationServiceForTest()
	m.expectEvent()
	m.expectParticipants([]string{testP1}, p(testP1))
	m.seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
	m.expectNoBlocks()
	m.expectTx()
	m.reservations.On("InsertBatch", mock.Anything, m.tx, testEventID, mock.Anything).Return(int64(1), nil)
	want := []*reservation.Reservation{{ID: testR7, SeatID: testS1, ParticipantID: testP1}}
	m.reservations.On("ListByEventTx", mock.Anything, m.tx, testEventID).Return(want, nil)
	m.tx.On("Commit").Return(nil)
	m.cache.On("Invalidate", mock.Anything, testEventID).Return(errors.New("Redis停止中"))
	m.publisher.On("PublishReservationsReconciled", mock.Anything, mock.Anything).Return(errors.New("ブローカー停止中"))

	got, err := svc.ApplyChanges(context.Background(), ApplyChangesInput{
		EventID: testEventID,
		Changes: []reservation.ChangeRequest{{ParticipantID: testP1, SeatID: testS1}},
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1.0, m.batches("success"))
}

func TestReservationService_ApplyChanges_WithoutOptionalDependencies(t *testing.T) {
	txManager := new(MockTxManager)
	tx := new(MockTx)
	reservations := new(MockReservationRepository)
	events := new(MockEventRepository)
	participants := new(MockParticipantRepository)
	seats := new(MockSeatRepository)
	blocks := new(MockSeatBlockRepository)
	svc := NewReservationService(txManager, reservations, events, participants, seats, blocks, nil, nil, nil)

	events.On("Exists", mock.Anything, testEventID).Return(true, nil)
	participants.On("FindByIDs", mock.Anything, []string{testP1}).Return([]*participant.Participant{p(testP1)}, nil)
	seats.On("FindExisting", mock.Anything, []string{testS1}).Return([]string{testS1}, nil)
	blocks.On("FindBlockedSeats", mock.Anything, testEventID, []string{testS1}).Return([]string{}, nil)
	txManager.On("Begin", mock.Anything).Return(tx, nil)
	tx.On("Rollback").Return(nil).Maybe()
	tx.On("Commit").Return(nil)
	reservations.On("InsertBatch", mock.Anything, tx, testEventID, mock.Anything).Return(int64(1), nil)
	reservations.On("ListByEventTx", mock.Anything, tx, testEventID).Return([]*reservation.Reservation{{ID: testR7}}, nil)

	got, err := svc.ApplyChanges(context.Background(), ApplyChangesInput{
		EventID: testEventID,
		Changes: []reservation.ChangeRequest{{ParticipantID: testP1, SeatID: testS1}},
	})

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReservationService_ListReservations(t *testing.T) {
	ctx := context.Background()
	list := []*reservation.Reservation{{ID: testR7, EventID: testEventID, SeatID: testS1, ParticipantID: testP1}}

	t.Run("キャッシュヒット時はDBを参照しない", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.cache.On("Get", mock.Anything, testEventID).Return(list, nil)

		got, err := svc.ListReservations(ctx, testEventID)

		require.NoError(t, err)
		assert.Equal(t, list, got)
		m.reservations.AssertNotCalled(t, "ListByEvent", mock.Anything, mock.Anything)
	})

	t.Run("キャッシュミス時はDBから取得してキャッシュする", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.cache.On("Get", mock.Anything, testEventID).Return(nil, redisinfra.ErrCacheMiss)
		gen := m.cache.On("Generation", mock.Anything, testEventID).Return(int64(4), nil)
		read := m.reservations.On("ListByEvent", mock.Anything, testEventID).Return(list, nil)
		set := m.cache.On("Set", mock.Anything, testEventID, int64(4), list).Return(nil)
		// 世代番号はDBを読む前に控える
		mock.InOrder(gen, read, set)

		got, err := svc.ListReservations(ctx, testEventID)

		require.NoError(t, err)
		assert.Equal(t, list, got)
		m.cache.AssertExpectations(t)
	})

	t.Run("キャッシュ障害時もDBから返す", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.cache.On("Get", mock.Anything, testEventID).Return(nil, errors.New("Redis停止中"))
		m.cache.On("Generation", mock.Anything, testEventID).Return(int64(0), errors.New("Redis停止中"))
		m.reservations.On("ListByEvent", mock.Anything, testEventID).Return(list, nil)

		got, err := svc.ListReservations(ctx, testEventID)

		require.NoError(t, err)
		assert.Equal(t, list, got)
		// 世代が取れなければキャッシュしない
		m.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("キャッシュ保存の失敗は無視する", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.cache.On("Get", mock.Anything, testEventID).Return(nil, redisinfra.ErrCacheMiss)
		m.cache.On("Generation", mock.Anything, testEventID).Return(int64(1), nil)
		m.reservations.On("ListByEvent", mock.Anything, testEventID).Return(list, nil)
		m.cache.On("Set", mock.Anything, testEventID, int64(1), list).Return(errors.New("Redis停止中"))

		got, err := svc.ListReservations(ctx, testEventID)

		require.NoError(t, err)
		assert.Equal(t, list, got)
	})

	t.Run("読み取り中に無効化された一覧は保存されずにそのまま返る", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.expectEvent()
		m.cache.On("Get", mock.Anything, testEventID).Return(nil, redisinfra.ErrCacheMiss)
		m.cache.On("Generation", mock.Anything, testEventID).Return(int64(2), nil)
		m.reservations.On("ListByEvent", mock.Anything, testEventID).Return(list, nil)
		m.cache.On("Set", mock.Anything, testEventID, int64(2), list).Return(redisinfra.ErrStaleSnapshot)

		got, err := svc.ListReservations(ctx, testEventID)

		require.NoError(t, err)
		assert.Equal(t, list, got)
		m.cache.AssertExpectations(t)
	})

	t.Run("大文字のイベントIDは正規化してキャッシュキーに使う", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		const lower = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
		m.events.On("Exists", mock.Anything, lower).Return(true, nil)
		m.cache.On("Get", mock.Anything, lower).Return(list, nil)

		got, err := svc.ListReservations(ctx, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8")

		require.NoError(t, err)
		assert.Equal(t, list, got)
		m.cache.AssertExpectations(t)
	})

	t.Run("存在しないイベントは検証エラー", func(t *testing.T) {
		svc, m := newReservationServiceForTest()
		m.events.On("Exists", mock.Anything, testEventID).Return(false, nil)

		_, err := svc.ListReservations(ctx, testEventID)

		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.ErrorIs(t, err, event.ErrEventNotFound)
	})
}

func TestFirstMissing(t *testing.T) {
	id, missing := firstMissing([]string{"a", "b", "c"}, []string{"c", "a"})
	assert.True(t, missing)
	assert.Equal(t, "b", id)

	_, missing = firstMissing([]string{"a"}, []string{"a", "z"})
	assert.False(t, missing)
}
