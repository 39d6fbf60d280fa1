package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
)

func TestParticipantService_RegisterParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("参加者を登録できる", func(t *testing.T) {
		participants := new(MockParticipantRepository)
		events := new(MockEventRepository)
		service := NewParticipantService(participants, events)
		events.On("Exists", mock.Anything, testEventID).Return(true, nil)
		participants.On("Create", mock.Anything, mock.MatchedBy(func(p *participant.Participant) bool {
			return p.EventID == testEventID && p.Name == "山田太郎" && p.Email == "yamada@example.com"
		})).Return(nil)

		got, err := service.RegisterParticipant(ctx, RegisterParticipantInput{
			EventID: testEventID, Name: "山田太郎", Email: "yamada@example.com",
		})

		require.NoError(t, err)
		assert.Equal(t, "山田太郎", got.Name)
		participants.AssertExpectations(t)
	})

	t.Run("名前が空なら検証エラー", func(t *testing.T) {
		participants := new(MockParticipantRepository)
		events := new(MockEventRepository)
		service := NewParticipantService(participants, events)
		events.On("Exists", mock.Anything, testEventID).Return(true, nil)

		_, err := service.RegisterParticipant(ctx, RegisterParticipantInput{EventID: testEventID})

		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.ErrorIs(t, err, participant.ErrNameRequired)
		participants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("存在しないイベント", func(t *testing.T) {
		participants := new(MockParticipantRepository)
		events := new(MockEventRepository)
		service := NewParticipantService(participants, events)
		events.On("Exists", mock.Anything, testEventID).Return(false, nil)

		_, err := service.RegisterParticipant(ctx, RegisterParticipantInput{EventID: testEventID, Name: "山田太郎"})

		assert.ErrorIs(t, err, event.ErrEventNotFound)
	})

	t.Run("同じメールアドレスは登録できない", func(t *testing.T) {
		participants := new(MockParticipantRepository)
		events := new(MockEventRepository)
		service := NewParticipantService(participants, events)
		events.On("Exists", mock.Anything, testEventID).Return(true, nil)
		participants.On("Create", mock.Anything, mock.Anything).Return(participant.ErrAlreadyRegistered)

		_, err := service.RegisterParticipant(ctx, RegisterParticipantInput{
			EventID: testEventID, Name: "山田太郎", Email: "yamada@example.com",
		})

		assert.ErrorIs(t, err, participant.ErrAlreadyRegistered)
	})
}

func TestParticipantService_ListParticipants(t *testing.T) {
	participants := new(MockParticipantRepository)
	events := new(MockEventRepository)
	service := NewParticipantService(participants, events)
	events.On("Exists", mock.Anything, testEventID).Return(true, nil)
	participants.On("ListByEvent", mock.Anything, testEventID).Return([]*participant.Participant{p(testP1), p(testP2)}, nil)

	got, err := service.ListParticipants(context.Background(), testEventID)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}
