package shui_service

import (
	"github.com/iwtcode/shuiService/internal/config"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
)

// NewShuiService собирает принтер из конфигурации приложения и подключает к нему экспорт.
// Без адреса принтера сервис работает офлайн.
func NewShuiService(cfg *config.AppConfig, producer interfaces.KafkaService, archive interfaces.HistoryArchive, logger *logging.Logger) (interfaces.PrinterService, *Exporter, error) {
	pc := cfg.Printer
	name := pc.Host
	if name == "" {
		name = "offline"
	}
	recorder := metrics.NewRecorder(name)
	exporter := NewExporter(name, producer, archive, logger)

	if pc.Host == "" {
		offline, err := NewOffline(pc.DataDir, logger, recorder)
		if err != nil {
			return nil, nil, err
		}
		return offline, exporter, nil
	}

	printer, err := NewPrinter(Config{
		Name:          name,
		Host:          pc.Host,
		Port:          pc.Port,
		UploadPort:    pc.UploadPort,
		Timeout:       pc.Timeout,
		UploadTimeout: pc.UploadTimeout,
		DataDir:       pc.DataDir,
	}, logger, recorder)
	if err != nil {
		return nil, nil, err
	}
	exporter.Attach(printer)

	return printer, exporter, nil
}
