package handler

import (
	"context"

	"github.com/sanosuguru/go-event-seat-assignment/internal/application"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seatblock"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ParticipantServiceInterface は参加者サービスのインターフェース
type ParticipantServiceInterface interface {
	RegisterParticipant(ctx context.Context, input application.RegisterParticipantInput) (*participant.Participant, error)
	GetParticipant(ctx context.Context, id string) (*participant.Participant, error)
	ListParticipants(ctx context.Context, eventID string) ([]*participant.Participant, error)
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	CreateSeat(ctx context.Context, input application.CreateSeatInput) (*seat.Seat, error)
	CreateBulkSeats(ctx context.Context, input application.CreateBulkSeatsInput) ([]*seat.Seat, error)
	GetSeat(ctx context.Context, id string) (*seat.Seat, error)
	ListSeats(ctx context.Context, limit, offset int) ([]*seat.Seat, error)
}

// ReservationServiceInterface は座席割当サービスのインターフェース
type ReservationServiceInterface interface {
	ApplyChanges(ctx context.Context, input application.ApplyChangesInput) ([]*reservation.Reservation, error)
	ListReservations(ctx context.Context, eventID string) ([]*reservation.Reservation, error)
}

// SeatBlockServiceInterface は座席ブロックサービスのインターフェース
type SeatBlockServiceInterface interface {
	ToggleBlocks(ctx context.Context, input application.ToggleBlocksInput) ([]*seatblock.SeatBlock, error)
	ListSeatBlocks(ctx context.Context, eventID string) ([]*seatblock.SeatBlock, error)
}
