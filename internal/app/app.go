package app

import (
	"context"
	"net/http"
	"time"

	"github.com/iwtcode/shuiService/internal/adapters/handlers"
	"github.com/iwtcode/shuiService/internal/adapters/repositories/postgres"
	"github.com/iwtcode/shuiService/internal/config"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/services/kafka"
	"github.com/iwtcode/shuiService/internal/services/shui_service"
	"github.com/iwtcode/shuiService/internal/usecases"

	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		RepositoryModule,
		ProducerModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		// Invoke-функции для запуска фоновых задач и хуков жизненного цикла
		fx.Invoke(InvokeRunPrinter),
		fx.Invoke(InvokeCloseProducer),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "ShuiServiceApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(postgres.NewRepository),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
)

var ServiceModule = fx.Module("service_module",
	fx.Provide(shui_service.NewShuiService),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// InvokeRunPrinter запускает цикл принтера и экспорт на время жизни приложения.
func InvokeRunPrinter(lc fx.Lifecycle, printer interfaces.PrinterService, exporter *shui_service.Exporter, logger *logging.Logger) {
	var (
		cancel context.CancelFunc
		group  *errgroup.Group
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			group, runCtx = errgroup.WithContext(runCtx)

			group.Go(func() error {
				return <-printer.RunAsync(runCtx)
			})
			group.Go(func() error {
				return exporter.Run(runCtx)
			})
			logger.Info("Printer loop started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping printer loop...")
			cancel()

			done := make(chan error, 1)
			go func() { done <- group.Wait() }()
			select {
			case err := <-done:
				if err != nil {
					logger.Error("Printer loop stopped with error", "error", err)
				}
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// InvokeCloseProducer закрывает продюсер Kafka при остановке.
func InvokeCloseProducer(lc fx.Lifecycle, producer interfaces.KafkaService) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if producer == nil {
				return nil
			}
			return producer.Close()
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     h,
		ReadTimeout: cfg.Printer.UploadTimeout,
		// Загрузка ждет ответа принтера до UploadTimeout.
		WriteTimeout: cfg.Printer.UploadTimeout + 10*time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
