package errors

import (
	"errors"
	"fmt"
)

const (
	InternalServerError = "internal server error"
	BadRequest          = "bad request"
	NotFound            = "not_found"
	ServiceUnavailable  = "printer unavailable"
	NotImplemented      = "not supported by printer"
	FailedDependency    = "printer rejected upload"
)

// AppError представляет собой стандартизированную структуру ошибки для API.
type AppError struct {
	Code         int    `json:"code"`    // HTTP статус код
	Message      string `json:"message"` // Сообщение для клиента
	Err          error  `json:"-"`       // Внутренняя ошибка, не для клиента
	IsUserFacing bool   `json:"-"`       // Флаг, указывающий, можно ли показывать `Err`
}

func (a *AppError) Error() string {
	if a == nil {
		return ""
	}
	if a.Err != nil {
		return fmt.Sprintf("%s (code: %d): %v", a.Message, a.Code, a.Err)
	}
	return fmt.Sprintf("%s (code: %d)", a.Message, a.Code)
}

func (a *AppError) Unwrap() error {
	if a == nil {
		return nil
	}
	return a.Err
}

// NewAppError создает новый экземпляр AppError.
func NewAppError(httpCode int, message string, err error, isUserFacing bool) *AppError {
	return &AppError{
		Code:         httpCode,
		Message:      message,
		Err:          err,
		IsUserFacing: isUserFacing,
	}
}

var (
	// Ошибки принтера и хранилища файлов
	ErrNoConnection     = errors.New("printer is not connected")
	ErrAlreadyRunning   = errors.New("printer loop is already running")
	ErrInvalidExtension = errors.New("file extension must have at least 3 characters")
	ErrNameExhausted    = errors.New("no free 8.3 name left for file")
	ErrUploadFailed     = errors.New("printer rejected upload")
	ErrUploadTimeout    = errors.New("upload hard timeout")
	ErrFileNotFound     = errors.New("file not found in storage")
	ErrArchiveDisabled  = errors.New("history archive is disabled")
)
