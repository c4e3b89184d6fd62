package shui_service

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
	"github.com/iwtcode/shuiService/internal/services/storage"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

const (
	DefaultPort          = 8080
	DefaultUploadPort    = 80
	DefaultTimeout       = 4 * time.Second
	DefaultUploadTimeout = 120 * time.Second

	controlRetries = 1
	eventQueueSize = 64
	storageDirName = "storage"
)

// Config описывает один принтер SHUI.
type Config struct {
	Name          string
	Host          string
	Port          int
	UploadPort    int
	Timeout       time.Duration
	UploadTimeout time.Duration
	DataDir       string
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.UploadPort == 0 {
		c.UploadPort = DefaultUploadPort
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = DefaultUploadTimeout
	}
	if c.Name == "" {
		c.Name = c.Host
	}
}

// Printer - один принтер SHUI. Транспорт, движок команд, состояние, индекс файлов
// и журнал принадлежат одной горутине цикла (Run). Публичные методы можно вызывать
// из любой горутины, кроме колбэков и подписчиков, которые сами выполняются в цикле.
type Printer struct {
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.Recorder

	transport *Transport
	engine    *Engine
	store     *storage.Store
	storage   *storage.Service
	history   *History

	state *models.PrinterState
	sinks []StateSink

	events   chan event
	calls    chan func()
	started  atomic.Bool
	runMu    sync.Mutex
	running  bool
	loopDone chan struct{}
}

var _ interfaces.PrinterService = (*Printer)(nil)

// NewPrinter создает принтер и загружает индекс файлов и журнал из cfg.DataDir.
func NewPrinter(cfg Config, logger *logging.Logger, recorder *metrics.Recorder) (*Printer, error) {
	cfg.applyDefaults()
	if recorder == nil {
		recorder = metrics.NewRecorder(cfg.Name)
	}

	p := &Printer{
		cfg:      cfg,
		logger:   logger.WithPrefix("PRINTER"),
		metrics:  recorder,
		events:   make(chan event, eventQueueSize),
		calls:    make(chan func()),
		loopDone: make(chan struct{}),
	}

	store, err := storage.NewStore(filepath.Join(cfg.DataDir, storageDirName), logger.WithPrefix("STORAGE"))
	if err != nil {
		return nil, fmt.Errorf("open file index: %w", err)
	}
	p.store = store

	uploader := storage.NewUploader(cfg.Host, cfg.UploadPort, logger.WithPrefix("UPLOAD"))
	p.storage = storage.NewService(store, uploader, p.do, cfg.UploadTimeout, logger.WithPrefix("STORAGE"), recorder)

	history, err := NewHistory(cfg.DataDir, store.GetContentHash, logger, recorder)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	p.history = history

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	p.transport = NewTransport(addr, cfg.Timeout, p, logger, recorder)
	p.engine = NewEngine(p.transport.SubmitLine, logger, recorder)

	return p, nil
}

// AddStateSink подписывает sink на снимки состояния. Вызывать до Run.
func (p *Printer) AddStateSink(sink StateSink) {
	p.sinks = append(p.sinks, sink)
}

// AddHistorySink подписывает sink на закрытые записи журнала. Вызывать до Run.
func (p *Printer) AddHistorySink(sink HistorySink) {
	p.history.Subscribe(sink)
}

// Run крутит цикл принтера до отмены ctx. Повторный вызов возвращает ErrAlreadyRunning.
func (p *Printer) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return apperrors.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.runMu.Lock()
	p.running = true
	p.runMu.Unlock()

	p.logger.Info("Printer loop started", "printer", p.cfg.Name, "address", p.transport.addr)
	p.transport.start(ctx, p.events)

	defer func() {
		p.transport.stop()
		p.engine.CancelAll()
		p.state = nil

		p.runMu.Lock()
		p.running = false
		p.runMu.Unlock()
		close(p.loopDone)
		p.logger.Info("Printer loop stopped", "printer", p.cfg.Name)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.events:
			p.transport.handle(ev)
		case fn := <-p.calls:
			fn()
		}
	}
}

// RunAsync запускает Run в отдельной горутине. Канал получит результат Run.
func (p *Printer) RunAsync(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Run(ctx)
	}()
	return errCh
}

// do выполняет fn в потоке цикла и ждет завершения.
// Если цикл не запущен или уже остановлен, fn выполняется сразу под мьютексом.
func (p *Printer) do(fn func()) error {
	p.runMu.Lock()
	if !p.running {
		defer p.runMu.Unlock()
		fn()
		return nil
	}
	p.runMu.Unlock()

	done := make(chan struct{})
	select {
	case p.calls <- func() {
		defer close(done)
		fn()
	}:
		<-done
	case <-p.loopDone:
		p.runMu.Lock()
		defer p.runMu.Unlock()
		fn()
	}
	return nil
}

// IsConnected сообщает, что принтер отвечает и состояние известно.
func (p *Printer) IsConnected() bool {
	var connected bool
	_ = p.do(func() { connected = p.state != nil })
	return connected
}

// GetPrinterState возвращает копию состояния или nil, если принтер недоступен.
func (p *Printer) GetPrinterState() *models.PrinterState {
	var state *models.PrinterState
	_ = p.do(func() { state = p.state.Clone() })
	return state
}

// History возвращает закрытые записи журнала.
func (p *Printer) History() []models.HistoryEntry {
	var entries []models.HistoryEntry
	_ = p.do(func() { entries = p.history.Entries() })
	return entries
}

// PendingPrint возвращает открытую запись журнала или nil.
func (p *Printer) PendingPrint() *models.HistoryEntry {
	var entry *models.HistoryEntry
	_ = p.do(func() { entry = p.history.Pending() })
	return entry
}

func (p *Printer) Storage() interfaces.Storage {
	return p.storage
}

// resultOf переводит результат сопоставления в итог команды.
func (p *Printer) resultOf(result *string) models.GCodeResult {
	switch {
	case result != nil:
		return models.GCodeResultOk
	case p.state == nil:
		return models.GCodeResultNoConnection
	default:
		return models.GCodeResultBusy
	}
}

func (p *Printer) logResult(gcode string) models.GCodeCallback {
	return func(result models.GCodeResult) {
		if result != models.GCodeResultOk {
			p.logger.Warn("Control gcode failed", "gcode", gcode, "result", result)
		}
	}
}

// submitControl ставит управляющую команду с одной повторной попыткой.
// На недоступном принтере колбэк сразу получает NoConnection.
func (p *Printer) submitControl(gcode string, callback models.GCodeCallback) {
	if callback == nil {
		callback = p.logResult(gcode)
	}
	_ = p.do(func() {
		if p.state == nil {
			callback(models.GCodeResultNoConnection)
			return
		}
		p.engine.Submit(gcode, func(result *string) {
			callback(p.resultOf(result))
		}, controlRetries)
	})
}

func (p *Printer) message(gcode, message string) string {
	message, cut := normalizeMessage(message)
	if cut {
		p.logger.Warn("Message trimmed to its first line", "gcode", gcode, "message", message)
	}
	if message == "" {
		return gcode
	}
	return gcode + " " + message
}

func (p *Printer) SetBedTemperature(target int, callback models.GCodeCallback) {
	p.submitControl(fmt.Sprintf("M140 S%d", target), callback)
}

func (p *Printer) SetExtruderTemperature(target int, callback models.GCodeCallback) {
	p.submitControl(fmt.Sprintf("M104 T0 S%d", target), callback)
}

func (p *Printer) SetFeedRatePercent(percent int, callback models.GCodeCallback) {
	p.submitControl(fmt.Sprintf("M220 S%d", percent), callback)
}

// SetFanSpeed задает скорость вентилятора 0-255.
func (p *Printer) SetFanSpeed(speed int, callback models.GCodeCallback) {
	p.submitControl(fmt.Sprintf("M106 S%d", speed), callback)
}

func (p *Printer) SetLCDMessage(message string, callback models.GCodeCallback) {
	p.submitControl(p.message("M117", message), callback)
}

// SetDialogMessage показывает диалог, seconds задает время показа.
func (p *Printer) SetDialogMessage(message string, seconds *int, callback models.GCodeCallback) {
	gcode := "M2011"
	if seconds != nil {
		gcode = fmt.Sprintf("M2011 S%d", *seconds)
	}
	p.submitControl(p.message(gcode, message), callback)
}

func (p *Printer) PauseUntilUserInput(message string, callback models.GCodeCallback) {
	p.submitControl(p.message("M0", message), callback)
}

func (p *Printer) PausePrint(callback models.GCodeCallback) {
	p.submitControl("M25", callback)
}

func (p *Printer) ResumePrint(callback models.GCodeCallback) {
	p.submitControl("M24", callback)
}

func (p *Printer) ReleaseMotors(callback models.GCodeCallback) {
	p.submitControl("M84", callback)
}

func (p *Printer) Identify(callback models.GCodeCallback) {
	p.submitControl("M300", callback)
}

// cancelSequence: пауза, относительные координаты, подъем оси Z, отключение моторов, вентилятор.
var cancelSequence = []string{"M25", "G91", "G1 Z20", "M84", "M84", "M106 S0"}

// CancelPrint отправляет шаги отмены независимо друг от друга.
// Колбэк получает итог последнего шага, упавшие шаги не откатываются.
func (p *Printer) CancelPrint(callback models.GCodeCallback) {
	if callback == nil {
		callback = p.logResult("cancel")
	}
	last := len(cancelSequence) - 1
	for i, gcode := range cancelSequence {
		if i == last {
			p.submitControl(gcode, callback)
			continue
		}
		p.submitControl(gcode, nil)
	}
}
