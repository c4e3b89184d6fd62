package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/pkg/errors"

	"github.com/gin-gonic/gin"
)

// GetState возвращает текущее состояние принтера.
// @Summary Состояние принтера
// @Tags Printer
// @Produce json
// @Success 200 {object} models.StateResponse
// @Router /printer/state [get]
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.usecase.GetState())
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// GetHistory возвращает журнал печатей, новые записи первыми.
// @Summary Журнал печатей
// @Tags Printer
// @Produce json
// @Param limit query int false "Максимум записей"
// @Success 200 {object} models.HistoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /printer/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		h.BadRequest(c, err, "Invalid limit")
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Status: "ok", Entries: h.usecase.GetHistory(limit)})
}

// GetArchivedHistory возвращает записи из архива в базе данных.
func (h *Handler) GetArchivedHistory(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		h.BadRequest(c, err, "Invalid limit")
		return
	}
	entries, err := h.usecase.GetArchivedHistory(limit)
	if err != nil {
		if stderrors.Is(err, errors.ErrArchiveDisabled) {
			h.ErrorResponse(c, err, http.StatusNotImplemented, errors.NotImplemented, true)
			return
		}
		h.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Status: "ok", Entries: entries})
}

// SetBedTemperature задает целевую температуру стола.
// @Summary Температура стола
// @Tags Control
// @Accept json
// @Produce json
// @Param input body models.TemperatureRequest true "Целевая температура"
// @Success 200 {object} models.CommandResponse
// @Failure 409 {object} models.CommandResponse "Принтер занят"
// @Failure 503 {object} models.CommandResponse "Принтер недоступен"
// @Router /printer/bed [post]
func (h *Handler) SetBedTemperature(c *gin.Context) {
	var req models.TemperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	result, err := h.usecase.SetBedTemperature(c.Request.Context(), req.Target)
	h.CommandResult(c, result, err)
}

func (h *Handler) SetExtruderTemperature(c *gin.Context) {
	var req models.TemperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	result, err := h.usecase.SetExtruderTemperature(c.Request.Context(), req.Target)
	h.CommandResult(c, result, err)
}

func (h *Handler) SetFeedRate(c *gin.Context) {
	var req models.FeedRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	result, err := h.usecase.SetFeedRatePercent(c.Request.Context(), req.Percent)
	h.CommandResult(c, result, err)
}

func (h *Handler) SetFanSpeed(c *gin.Context) {
	var req models.FanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}
	result, err := h.usecase.SetFanSpeed(c.Request.Context(), req.Speed)
	h.CommandResult(c, result, err)
}

func (h *Handler) bindMessage(c *gin.Context) (models.MessageRequest, bool) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return req, false
	}
	return req, true
}

func (h *Handler) SetLCDMessage(c *gin.Context) {
	req, ok := h.bindMessage(c)
	if !ok {
		return
	}
	result, err := h.usecase.SetLCDMessage(c.Request.Context(), req.Message)
	h.CommandResult(c, result, err)
}

func (h *Handler) SetDialogMessage(c *gin.Context) {
	req, ok := h.bindMessage(c)
	if !ok {
		return
	}
	result, err := h.usecase.SetDialogMessage(c.Request.Context(), req.Message, req.Seconds)
	h.CommandResult(c, result, err)
}

func (h *Handler) PauseUntilUserInput(c *gin.Context) {
	req, ok := h.bindMessage(c)
	if !ok {
		return
	}
	result, err := h.usecase.PauseUntilUserInput(c.Request.Context(), req.Message)
	h.CommandResult(c, result, err)
}

func (h *Handler) PausePrint(c *gin.Context) {
	result, err := h.usecase.PausePrint(c.Request.Context())
	h.CommandResult(c, result, err)
}

func (h *Handler) ResumePrint(c *gin.Context) {
	result, err := h.usecase.ResumePrint(c.Request.Context())
	h.CommandResult(c, result, err)
}

// CancelPrint отменяет печать. Итог соответствует последнему шагу последовательности отмены.
// @Summary Отменить печать
// @Tags Control
// @Produce json
// @Success 200 {object} models.CommandResponse
// @Router /printer/cancel [post]
func (h *Handler) CancelPrint(c *gin.Context) {
	result, err := h.usecase.CancelPrint(c.Request.Context())
	h.CommandResult(c, result, err)
}

func (h *Handler) ReleaseMotors(c *gin.Context) {
	result, err := h.usecase.ReleaseMotors(c.Request.Context())
	h.CommandResult(c, result, err)
}

func (h *Handler) Identify(c *gin.Context) {
	result, err := h.usecase.Identify(c.Request.Context())
	h.CommandResult(c, result, err)
}
