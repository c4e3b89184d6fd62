package handlers

import (
	"net/http"

	"github.com/iwtcode/shuiService/internal/config"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		printer := v1.Group("/printer")
		{
			printer.GET("/state", h.GetState)
			printer.GET("/history", h.GetHistory)
			printer.GET("/history/archive", h.GetArchivedHistory)

			printer.GET("/files", h.ListFiles)
			printer.GET("/files/:name", h.GetFile)
			printer.POST("/upload", h.Upload)

			printer.POST("/bed", h.SetBedTemperature)
			printer.POST("/extruder", h.SetExtruderTemperature)
			printer.POST("/feedrate", h.SetFeedRate)
			printer.POST("/fan", h.SetFanSpeed)
			printer.POST("/lcd", h.SetLCDMessage)
			printer.POST("/dialog", h.SetDialogMessage)
			printer.POST("/wait", h.PauseUntilUserInput)
			printer.POST("/pause", h.PausePrint)
			printer.POST("/resume", h.ResumePrint)
			printer.POST("/cancel", h.CancelPrint)
			printer.POST("/release", h.ReleaseMotors)
			printer.POST("/identify", h.Identify)
		}
	}

	return router
}
