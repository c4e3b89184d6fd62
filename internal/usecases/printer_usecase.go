package usecases

import (
	"context"
	"fmt"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

type Usecase struct {
	printer interfaces.PrinterService
	archive interfaces.HistoryArchive
	logger  *logging.Logger
}

func NewUsecase(printer interfaces.PrinterService, archive interfaces.HistoryArchive, logger *logging.Logger) interfaces.Usecases {
	return &Usecase{
		printer: printer,
		archive: archive,
		logger:  logger.WithPrefix("USECASE"),
	}
}

// await ставит команду и ждет ее итог или отмены ctx.
func await(ctx context.Context, submit func(models.GCodeCallback)) (models.GCodeResult, error) {
	results := make(chan models.GCodeResult, 1)
	submit(func(result models.GCodeResult) {
		results <- result
	})

	select {
	case result := <-results:
		return result, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (u *Usecase) GetState() models.StateResponse {
	state := u.printer.GetPrinterState()
	return models.StateResponse{
		Status:    "ok",
		Connected: state != nil,
		State:     state,
	}
}

// GetHistory возвращает журнал, новые записи первыми. limit <= 0 означает все записи.
func (u *Usecase) GetHistory(limit int) []models.HistoryEntry {
	entries := u.printer.History()
	out := make([]models.HistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, entries[i])
	}
	return out
}

func (u *Usecase) GetArchivedHistory(limit int) ([]models.HistoryEntry, error) {
	if u.archive == nil {
		return nil, apperrors.ErrArchiveDisabled
	}
	archived, err := u.archive.GetRecent(limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать архив печатей: %w", err)
	}
	out := make([]models.HistoryEntry, 0, len(archived))
	for i := range archived {
		out = append(out, archived[i].ToModel())
	}
	return out, nil
}

func (u *Usecase) ListFiles() []models.FileInfo {
	return u.printer.Storage().StoredFiles()
}

func (u *Usecase) GetFile(name string) (models.FileInfo, error) {
	return u.printer.Storage().GetFile(name)
}

func (u *Usecase) Upload(ctx context.Context, filename string, content []byte, startPrinting bool) (string, error) {
	u.logger.Info("Uploading file to printer", "file", filename, "bytes", len(content), "start_printing", startPrinting)
	return u.printer.Storage().Upload(ctx, filename, content, startPrinting)
}

func (u *Usecase) SetBedTemperature(ctx context.Context, target int) (models.GCodeResult, error) {
	return await(ctx, func(cb models.GCodeCallback) { u.printer.SetBedTemperature(target, cb) })
}

func (u *Usecase) SetExtruderTemperature(ctx context.Context, target int) (models.GCodeResult, error) {
	return await(ctx, func(cb models.GCodeCallback) { u.printer.SetExtruderTemperature(target, cb) })
}

func (u *Usecase) SetFeedRatePercent(ctx context.Context, percent int) (models.GCodeResult, error) {
	return await(ctx, func(cb models.GCodeCallback) { u.printer.SetFeedRatePercent(percent, cb) })
}

func (u *Usecase) SetFanSpeed(ctx context.Context, speed int) (models.GCodeResult, error) {
	return await(ctx, func(cb models.GCodeCallback) { u.printer.SetFanSpeed(speed, cb) })
}

func (u *Usecase) SetLCDMessage(ctx context.Context, message string) (models.GCodeResult, error) {
	return await(ctx, func(cb models.GCodeCallback) { u.printer.SetLCDMessage(message, cb) })
}

func (u *Usecase) SetDialogMessage(ctx context.Context, message string, seconds *int) (models.GCodeResult, error) {
	return await(ctx, func(cb models.GCodeCallback) { u.printer.SetDialogMessage(message, seconds, cb) })
}

func (u *Usecase) PauseUntilUserInput(ctx context.Context, message string) (models.GCodeResult, error) {
	return await(ctx, func(cb models.GCodeCallback) { u.printer.PauseUntilUserInput(message, cb) })
}

func (u *Usecase) PausePrint(ctx context.Context) (models.GCodeResult, error) {
	return await(ctx, u.printer.PausePrint)
}

func (u *Usecase) ResumePrint(ctx context.Context) (models.GCodeResult, error) {
	return await(ctx, u.printer.ResumePrint)
}

func (u *Usecase) CancelPrint(ctx context.Context) (models.GCodeResult, error) {
	u.logger.Warn("Cancelling print")
	return await(ctx, u.printer.CancelPrint)
}

func (u *Usecase) ReleaseMotors(ctx context.Context) (models.GCodeResult, error) {
	return await(ctx, u.printer.ReleaseMotors)
}

func (u *Usecase) Identify(ctx context.Context) (models.GCodeResult, error) {
	return await(ctx, u.printer.Identify)
}
