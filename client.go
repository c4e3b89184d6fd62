package shui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/services/shui_service"
	"github.com/iwtcode/shuiService/internal/usecases"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

// Client является основной точкой входа для встраивания шлюза принтера в другое приложение.
// Управляющие методы блокируются до ответа принтера или отмены ctx.
type Client struct {
	interfaces.Usecases

	printer interfaces.PrinterService
	config  *Config
	logger  *logging.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

func newLogger(level string) *logging.Logger {
	if level == "off" || level == "none" {
		return logging.Nop()
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	return logging.NewLogger(&logging.Config{Enabled: true, Level: parsed.String()}, "SHUI")
}

// New создает клиент. Соединение с принтером открывается в Start.
// Без адреса клиент работает офлайн: доступны сохраненные файлы и журнал.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("shui: nil config")
	}
	logger := newLogger(cfg.LogLevel)

	var (
		printer interfaces.PrinterService
		err     error
	)
	if cfg.Host == "" {
		printer, err = shui_service.NewOffline(cfg.DataDir, logger, nil)
	} else {
		printer, err = shui_service.NewPrinter(shui_service.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			UploadPort: cfg.UploadPort,
			Timeout:    cfg.Timeout,
			DataDir:    cfg.DataDir,
		}, logger, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create printer: %w", err)
	}

	return &Client{
		Usecases: usecases.NewUsecases(printer, nil, logger),
		printer:  printer,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Start запускает цикл принтера в фоне. Цикл запускается один раз за жизнь клиента:
// повторный вызов, в том числе после Close, возвращает ErrAlreadyRunning.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return apperrors.ErrAlreadyRunning
	}
	c.started = true

	runCtx, cancel := context.WithCancel(ctx)
	group, runCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return c.printer.Run(runCtx)
	})
	c.cancel = cancel
	c.group = group
	return nil
}

// Close останавливает цикл принтера и ждет его завершения.
func (c *Client) Close() error {
	c.mu.Lock()
	cancel, group := c.cancel, c.group
	c.cancel, c.group = nil, nil
	c.mu.Unlock()

	if group == nil {
		return nil
	}
	cancel()
	return group.Wait()
}

// GetLogger возвращает используемый логгер.
func (c *Client) GetLogger() *logging.Logger {
	return c.logger
}

// IsConnected сообщает, отвечает ли принтер.
func (c *Client) IsConnected() bool {
	return c.printer.IsConnected()
}

// GetPrinterState возвращает копию текущего состояния или nil, если принтер недоступен.
func (c *Client) GetPrinterState() *models.PrinterState {
	return c.printer.GetPrinterState()
}

// Storage возвращает индекс загруженных файлов.
func (c *Client) Storage() interfaces.Storage {
	return c.printer.Storage()
}
