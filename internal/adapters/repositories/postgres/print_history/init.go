package print_history

import (
	"github.com/iwtcode/shuiService/internal/interfaces"
	"gorm.io/gorm"
)

type PrintHistoryRepositoryImpl struct {
	db *gorm.DB
}

func NewPrintHistoryRepository(db *gorm.DB) interfaces.HistoryArchive {
	return &PrintHistoryRepositoryImpl{db: db}
}
