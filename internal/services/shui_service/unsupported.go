package shui_service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
	"github.com/iwtcode/shuiService/internal/services/storage"
)

// Unsupported отвечает Unsupported на любую управляющую операцию.
// Встраивается в реализации, которые умеют не все.
type Unsupported struct{}

var _ interfaces.PrinterControl = Unsupported{}

func reply(callback models.GCodeCallback) {
	if callback != nil {
		callback(models.GCodeResultUnsupported)
	}
}

func (Unsupported) SetBedTemperature(_ int, callback models.GCodeCallback)      { reply(callback) }
func (Unsupported) SetExtruderTemperature(_ int, callback models.GCodeCallback) { reply(callback) }
func (Unsupported) SetFeedRatePercent(_ int, callback models.GCodeCallback)     { reply(callback) }
func (Unsupported) SetFanSpeed(_ int, callback models.GCodeCallback)            { reply(callback) }
func (Unsupported) SetLCDMessage(_ string, callback models.GCodeCallback)       { reply(callback) }
func (Unsupported) SetDialogMessage(_ string, _ *int, callback models.GCodeCallback) {
	reply(callback)
}
func (Unsupported) PauseUntilUserInput(_ string, callback models.GCodeCallback) { reply(callback) }
func (Unsupported) PausePrint(callback models.GCodeCallback)                    { reply(callback) }
func (Unsupported) ResumePrint(callback models.GCodeCallback)                   { reply(callback) }
func (Unsupported) CancelPrint(callback models.GCodeCallback)                   { reply(callback) }
func (Unsupported) ReleaseMotors(callback models.GCodeCallback)                 { reply(callback) }
func (Unsupported) Identify(callback models.GCodeCallback)                      { reply(callback) }

// Offline - принтер без адреса. Отдает сохраненный индекс файлов и журнал,
// управляющие операции не поддерживает, загрузки завершаются ErrNoConnection.
type Offline struct {
	Unsupported

	storage *storage.Service
	history *History
	logger  *logging.Logger
}

var _ interfaces.PrinterService = (*Offline)(nil)

func NewOffline(dataDir string, logger *logging.Logger, recorder *metrics.Recorder) (*Offline, error) {
	if recorder == nil {
		recorder = metrics.NewRecorder("offline")
	}
	store, err := storage.NewStore(filepath.Join(dataDir, storageDirName), logger.WithPrefix("STORAGE"))
	if err != nil {
		return nil, fmt.Errorf("open file index: %w", err)
	}
	history, err := NewHistory(dataDir, store.GetContentHash, logger, recorder)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return &Offline{
		storage: storage.NewService(store, nil, storage.Serialized(), DefaultUploadTimeout, logger.WithPrefix("STORAGE"), recorder),
		history: history,
		logger:  logger.WithPrefix("PRINTER"),
	}, nil
}

// Run ждет отмены ctx.
func (o *Offline) Run(ctx context.Context) error {
	o.logger.Warn("Printer host is not configured, running offline")
	<-ctx.Done()
	return nil
}

func (o *Offline) RunAsync(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- o.Run(ctx)
	}()
	return errCh
}

func (o *Offline) IsConnected() bool                     { return false }
func (o *Offline) GetPrinterState() *models.PrinterState { return nil }
func (o *Offline) History() []models.HistoryEntry        { return o.history.Entries() }
func (o *Offline) Storage() interfaces.Storage           { return o.storage }
