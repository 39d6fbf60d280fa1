package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/apperror"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/event"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/participant"
	"github.com/sanosuguru/go-event-seat-assignment/internal/domain/seat"
)

// toHTTPError はアプリケーション層のエラーをHTTPステータスに変換する
//
// 検証エラーは参照先が見つからない場合も含めて 400、競合は 409 とする。
// 単体取得で対象が無い場合のみ 404 を返す。
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, apperror.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, participant.ErrParticipantNotFound),
		errors.Is(err, seat.ErrSeatNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, participant.ErrAlreadyRegistered),
		errors.Is(err, seat.ErrSeatDuplicated):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}

func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}
