package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seatblock"
)

// OccupancyService はイベントごとの座席割当数・ブロック数を集計する
type OccupancyService struct {
	reservationRepo reservation.Repository
	blockRepo       seatblock.Repository
}

func NewOccupancyService(rr reservation.Repository, br seatblock.Repository) *OccupancyService {
	return &OccupancyService{reservationRepo: rr, blockRepo: br}
}

// Snapshot はイベントIDごとの割当数とブロック数を返す
func (s *OccupancyService) Snapshot(ctx context.Context) (reservations, blocks map[string]int, err error) {
	reservations, err = s.reservationRepo.CountByEvent(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("座席割当数の集計に失敗: %w", err)
	}
	blocks, err = s.blockRepo.CountByEvent(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("座席ブロック数の集計に失敗: %w", err)
	}
	return reservations, blocks, nil
}
