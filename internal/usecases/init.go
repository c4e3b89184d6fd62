package usecases

import (
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
)

// NewUsecases - конструктор для агрегирующего интерфейса use cases
func NewUsecases(
	printer interfaces.PrinterService,
	archive interfaces.HistoryArchive,
	logger *logging.Logger,
) interfaces.Usecases {
	return NewUsecase(printer, archive, logger)
}
