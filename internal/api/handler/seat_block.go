package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-seat-assignment/internal/application"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seatblock"
)

type SeatBlockHandler struct {
	service SeatBlockServiceInterface
}

func NewSeatBlockHandler(s SeatBlockServiceInterface) *SeatBlockHandler {
	return &SeatBlockHandler{service: s}
}

type ToggleItem struct {
	SeatID string `json:"seat_id"`
}

type ToggleBlocksRequest struct {
	Toggles []ToggleItem `json:"toggles" validate:"required"`
}

type SeatBlockResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	SeatID    string    `json:"seat_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toSeatBlockResponses(blocks []*seatblock.SeatBlock) []SeatBlockResponse {
	resp := make([]SeatBlockResponse, len(blocks))
	for i, b := range blocks {
		resp[i] = SeatBlockResponse{ID: b.ID, EventID: b.EventID, SeatID: b.SeatID, CreatedAt: b.CreatedAt}
	}
	return resp
}

// List godoc
// @Summary イベントの座席ブロック一覧を取得
// @Tags seat-blocks
// @Produce json
// @Param event_id path string true "イベントID"
// @Success 200 {array} SeatBlockResponse
// @Router /events/{event_id}/seat-blocks [get]
func (h *SeatBlockHandler) List(c echo.Context) error {
	blocks, err := h.service.ListSeatBlocks(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSeatBlockResponses(blocks))
}

// Toggle godoc
// @Summary 座席ブロックを切り替え
// @Description ブロック済みの座席は解除、未ブロックの座席はブロックします。存在しない座席は読み飛ばします。
// @Tags seat-blocks
// @Accept json
// @Produce json
// @Param event_id path string true "イベントID"
// @Param request body ToggleBlocksRequest true "切替対象"
// @Success 200 {array} SeatBlockResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /events/{event_id}/seat-blocks [put]
func (h *SeatBlockHandler) Toggle(c echo.Context) error {
	var req ToggleBlocksRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	toggles := make([]seatblock.Toggle, len(req.Toggles))
	for i, t := range req.Toggles {
		toggles[i] = seatblock.Toggle{SeatID: t.SeatID}
	}
	blocks, err := h.service.ToggleBlocks(c.Request().Context(), application.ToggleBlocksInput{
		EventID: c.Param("event_id"),
		Toggles: toggles,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSeatBlockResponses(blocks))
}
