package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
)

// 一括作成できる座席数の上限
const maxBulkSeats = 1000

type SeatService struct {
	seatRepo seat.Repository
}

func NewSeatService(sr seat.Repository) *SeatService {
	return &SeatService{seatRepo: sr}
}

type CreateSeatInput struct {
	Section string
	Row     string
	Number  int
}

func (s *SeatService) CreateSeat(ctx context.Context, input CreateSeatInput) (*seat.Seat, error) {
	se := seat.NewSeat(input.Section, input.Row, input.Number)
	if err := se.Validate(); err != nil {
		return nil, apperror.Validation(err)
	}
	if err := s.seatRepo.Create(ctx, se); err != nil {
		return nil, err
	}
	return se, nil
}

// CreateBulkSeatsInput は同じセクション・列に連番の座席を作る
type CreateBulkSeatsInput struct {
	Section   string
	Row       string
	StartFrom int
	Count     int
}

func (s *SeatService) CreateBulkSeats(ctx context.Context, input CreateBulkSeatsInput) ([]*seat.Seat, error) {
	if input.Count <= 0 || input.Count > maxBulkSeats {
		return nil, apperror.Validation(fmt.Errorf("座席数は1〜%dで指定してください", maxBulkSeats))
	}
	start := input.StartFrom
	if start <= 0 {
		start = 1
	}
	seats := make([]*seat.Seat, 0, input.Count)
	for i := 0; i < input.Count; i++ {
		se := seat.NewSeat(input.Section, input.Row, start+i)
		if err := se.Validate(); err != nil {
			return nil, apperror.Validation(err)
		}
		seats = append(seats, se)
	}
	if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (s *SeatService) GetSeat(ctx context.Context, id string) (*seat.Seat, error) {
	return s.seatRepo.GetByID(ctx, id)
}

func (s *SeatService) ListSeats(ctx context.Context, limit, offset int) ([]*seat.Seat, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return s.seatRepo.List(ctx, limit, offset)
}
