package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-seat-assignment/internal/application"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
)

type ParticipantHandler struct {
	service ParticipantServiceInterface
}

func NewParticipantHandler(s ParticipantServiceInterface) *ParticipantHandler {
	return &ParticipantHandler{service: s}
}

type RegisterParticipantRequest struct {
	Name  string `json:"name" validate:"required" example:"山田太郎"`
	Email string `json:"email" validate:"omitempty,email" example:"yamada@example.com"`
}

type ParticipantResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toParticipantResponse(p *participant.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID: p.ID, EventID: p.EventID, Name: p.Name, Email: p.Email, CreatedAt: p.CreatedAt,
	}
}

// Register godoc
// @Summary 参加者を登録
// @Tags participants
// @Accept json
// @Produce json
// @Param event_id path string true "イベントID"
// @Param request body RegisterParticipantRequest true "参加者情報"
// @Success 201 {object} ParticipantResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "同じメールアドレスが登録済み"
// @Router /events/{event_id}/participants [post]
func (h *ParticipantHandler) Register(c echo.Context) error {
	var req RegisterParticipantRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.service.RegisterParticipant(c.Request().Context(), application.RegisterParticipantInput{
		EventID: c.Param("event_id"), Name: req.Name, Email: req.Email,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toParticipantResponse(p))
}

// GetByID godoc
// @Summary 参加者を取得
// @Tags participants
// @Produce json
// @Param id path string true "参加者ID"
// @Success 200 {object} ParticipantResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /participants/{id} [get]
func (h *ParticipantHandler) GetByID(c echo.Context) error {
	p, err := h.service.GetParticipant(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toParticipantResponse(p))
}

// ListByEvent godoc
// @Summary イベントの参加者一覧を取得
// @Tags participants
// @Produce json
// @Param event_id path string true "イベントID"
// @Success 200 {array} ParticipantResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{event_id}/participants [get]
func (h *ParticipantHandler) ListByEvent(c echo.Context) error {
	participants, err := h.service.ListParticipants(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]ParticipantResponse, len(participants))
	for i, p := range participants {
		resp[i] = toParticipantResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}
