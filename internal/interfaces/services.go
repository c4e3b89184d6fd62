package interfaces

import (
	"context"

	"github.com/iwtcode/shuiService/internal/domain/models"
)

// PrinterControl определяет управляющие операции принтера.
// Каждая операция асинхронна, колбэк вызывается ровно один раз.
type PrinterControl interface {
	SetBedTemperature(target int, callback models.GCodeCallback)
	SetExtruderTemperature(target int, callback models.GCodeCallback)
	SetFeedRatePercent(percent int, callback models.GCodeCallback)
	SetFanSpeed(speed int, callback models.GCodeCallback)
	SetLCDMessage(message string, callback models.GCodeCallback)
	SetDialogMessage(message string, seconds *int, callback models.GCodeCallback)
	PauseUntilUserInput(message string, callback models.GCodeCallback)
	PausePrint(callback models.GCodeCallback)
	ResumePrint(callback models.GCodeCallback)
	CancelPrint(callback models.GCodeCallback)
	ReleaseMotors(callback models.GCodeCallback)
	Identify(callback models.GCodeCallback)
}

// PrinterService - это агрегирующий интерфейс одного принтера.
type PrinterService interface {
	PrinterControl
	Run(ctx context.Context) error
	RunAsync(ctx context.Context) <-chan error
	IsConnected() bool
	GetPrinterState() *models.PrinterState
	History() []models.HistoryEntry
	Storage() Storage
}

// Storage определяет контракт индекса файлов принтера.
type Storage interface {
	Upload(ctx context.Context, longFilename string, content []byte, startPrinting bool) (string, error)
	UploadAsync(longFilename string, content []byte, startPrinting bool, callback func(short string, err error))
	GetLongFilename(short string) (string, bool)
	Get83Filename(longFilename string) (string, bool)
	Make83(longFilename string) (string, error)
	GetRuntimeData(longFilename string) (models.RuntimeIndex, bool)
	GetContentHash(longFilename string) (string, bool)
	GetMetadata(hash string) (models.FileMetadata, bool)
	GetFile(name string) (models.FileInfo, error)
	StoredFiles() []models.FileInfo
}
