package interfaces

import (
	"context"

	"github.com/iwtcode/shuiService/internal/domain/models"
)

// Usecases - это агрегирующий интерфейс для всех use cases
type Usecases interface {
	GetState() models.StateResponse
	GetHistory(limit int) []models.HistoryEntry
	GetArchivedHistory(limit int) ([]models.HistoryEntry, error)
	ListFiles() []models.FileInfo
	GetFile(name string) (models.FileInfo, error)
	Upload(ctx context.Context, filename string, content []byte, startPrinting bool) (string, error)

	SetBedTemperature(ctx context.Context, target int) (models.GCodeResult, error)
	SetExtruderTemperature(ctx context.Context, target int) (models.GCodeResult, error)
	SetFeedRatePercent(ctx context.Context, percent int) (models.GCodeResult, error)
	SetFanSpeed(ctx context.Context, speed int) (models.GCodeResult, error)
	SetLCDMessage(ctx context.Context, message string) (models.GCodeResult, error)
	SetDialogMessage(ctx context.Context, message string, seconds *int) (models.GCodeResult, error)
	PauseUntilUserInput(ctx context.Context, message string) (models.GCodeResult, error)
	PausePrint(ctx context.Context) (models.GCodeResult, error)
	ResumePrint(ctx context.Context) (models.GCodeResult, error)
	CancelPrint(ctx context.Context) (models.GCodeResult, error)
	ReleaseMotors(ctx context.Context) (models.GCodeResult, error)
	Identify(ctx context.Context) (models.GCodeResult, error)
}
