package interfaces

import (
	"github.com/iwtcode/shuiService/internal/domain/entities"
)

// HistoryArchive определяет контракт архива закрытых записей журнала печатей
type HistoryArchive interface {
	Save(entry *entities.PrintHistoryEntry) error
	GetByID(id string) (*entities.PrintHistoryEntry, error)
	GetRecent(limit int) ([]entities.PrintHistoryEntry, error)
}
