package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-seat-assignment/internal/application"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

// ChangeRequestItem は変更1件分
// participant_id / old_participant_id の有無で新規・解除・付け替えが決まる
type ChangeRequestItem struct {
	ReservationID    string `json:"reservation_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatID           string `json:"seat_id,omitempty" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	ParticipantID    string `json:"participant_id,omitempty" example:"6ba7b811-9dad-11d1-80b4-00c04fd430c8"`
	OldParticipantID string `json:"old_participant_id,omitempty"`
}

type ApplyChangesRequest struct {
	Changes []ChangeRequestItem `json:"changes" validate:"required"`
}

type ReservationResponse struct {
	ID            string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID       string    `json:"event_id"`
	SeatID        string    `json:"seat_id"`
	ParticipantID string    `json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, EventID: r.EventID, SeatID: r.SeatID, ParticipantID: r.ParticipantID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toReservationResponses(list []*reservation.Reservation) []ReservationResponse {
	resp := make([]ReservationResponse, len(list))
	for i, r := range list {
		resp[i] = toReservationResponse(r)
	}
	return resp
}

// List godoc
// @Summary イベントの座席割当一覧を取得
// @Tags reservations
// @Produce json
// @Param event_id path string true "イベントID"
// @Success 200 {array} ReservationResponse
// @Failure 400 {object} api.ErrorResponse "イベントが存在しない"
// @Router /events/{event_id}/reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	list, err := h.service.ListReservations(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponses(list))
}

// Apply godoc
// @Summary 座席割当を一括変更
// @Description 新規・解除・付け替えをまとめて1トランザクションで適用し、適用後の全座席割当を返します。
// @Description 1件でも不正な変更があれば何も適用されません。
// @Tags reservations
// @Accept json
// @Produce json
// @Param event_id path string true "イベントID"
// @Param request body ApplyChangesRequest true "変更リクエスト"
// @Success 200 {array} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "座席が既に割当済みかブロック中、または割当が変更済み"
// @Router /events/{event_id}/reservations [put]
func (h *ReservationHandler) Apply(c echo.Context) error {
	var req ApplyChangesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	changes := make([]reservation.ChangeRequest, len(req.Changes))
	for i, item := range req.Changes {
		changes[i] = reservation.ChangeRequest{
			ReservationID:    item.ReservationID,
			SeatID:           item.SeatID,
			ParticipantID:    item.ParticipantID,
			OldParticipantID: item.OldParticipantID,
		}
	}

	list, err := h.service.ApplyChanges(c.Request().Context(), application.ApplyChangesInput{
		EventID: c.Param("event_id"),
		Changes: changes,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponses(list))
}
