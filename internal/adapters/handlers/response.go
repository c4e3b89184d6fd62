package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse возвращает стандартизированный ответ с ошибкой
func (h *Handler) ErrorResponse(c *gin.Context, err error, statusCode int, message string, showError bool) {
	errorMessage := message
	if showError && err != nil {
		errorMessage = message + ": " + err.Error()
	}

	h.logger.Error(message, "error", err, "statusCode", statusCode)
	c.AbortWithStatusJSON(statusCode, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    statusCode,
			"message": errorMessage,
		},
	})
}

// BadRequest возвращает ошибку 400
func (h *Handler) BadRequest(c *gin.Context, err error, message string) {
	if message == "" {
		message = errors.BadRequest
	}
	h.ErrorResponse(c, err, http.StatusBadRequest, message, true)
}

// InternalError возвращает ошибку 500
func (h *Handler) InternalError(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusInternalServerError, errors.InternalServerError, false)
}

// resultStatusCode сопоставляет итог команды HTTP-коду.
func resultStatusCode(result models.GCodeResult) int {
	switch result {
	case models.GCodeResultOk:
		return http.StatusOK
	case models.GCodeResultUnsupported:
		return http.StatusNotImplemented
	case models.GCodeResultNoConnection:
		return http.StatusServiceUnavailable
	case models.GCodeResultBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CommandResult отдает итог управляющей команды.
func (h *Handler) CommandResult(c *gin.Context, result models.GCodeResult, err error) {
	if err != nil {
		h.ErrorResponse(c, err, http.StatusGatewayTimeout, "printer did not answer in time", false)
		return
	}

	code := resultStatusCode(result)
	status := "ok"
	if code != http.StatusOK {
		status = "error"
		h.logger.Warn("Command was not executed", "result", result, "path", c.FullPath())
	}
	c.JSON(code, models.CommandResponse{Status: status, Result: result})
}

// storageAppError сопоставляет ошибку хранилища стандартизированной ошибке API.
func storageAppError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, errors.ErrFileNotFound):
		return errors.NewAppError(http.StatusNotFound, errors.NotFound, err, true)
	case stderrors.Is(err, errors.ErrInvalidExtension), stderrors.Is(err, errors.ErrNameExhausted):
		return errors.NewAppError(http.StatusBadRequest, "invalid file name", err, true)
	case stderrors.Is(err, errors.ErrNoConnection):
		return errors.NewAppError(http.StatusServiceUnavailable, errors.ServiceUnavailable, err, true)
	case stderrors.Is(err, errors.ErrUploadTimeout):
		return errors.NewAppError(http.StatusGatewayTimeout, "upload timed out", err, true)
	case stderrors.Is(err, errors.ErrUploadFailed):
		return errors.NewAppError(http.StatusFailedDependency, errors.FailedDependency, err, true)
	default:
		return errors.NewAppError(http.StatusInternalServerError, errors.InternalServerError, err, false)
	}
}

// StorageError отдает ошибку хранилища с подходящим HTTP-кодом.
func (h *Handler) StorageError(c *gin.Context, err error) {
	appErr := storageAppError(err)
	h.ErrorResponse(c, appErr.Err, appErr.Code, appErr.Message, appErr.IsUserFacing)
}
