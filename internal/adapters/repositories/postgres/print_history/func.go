package print_history

import (
	"github.com/iwtcode/shuiService/internal/domain/entities"
	"gorm.io/gorm/clause"
)

// Save сохраняет запись. Повторное сохранение той же записи обновляет ее.
func (r *PrintHistoryRepositoryImpl) Save(entry *entities.PrintHistoryEntry) error {
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(entry).Error
}

func (r *PrintHistoryRepositoryImpl) GetByID(id string) (*entities.PrintHistoryEntry, error) {
	var entry entities.PrintHistoryEntry
	err := r.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetRecent возвращает последние записи, новые первыми.
func (r *PrintHistoryRepositoryImpl) GetRecent(limit int) ([]entities.PrintHistoryEntry, error) {
	var entries []entities.PrintHistoryEntry
	query := r.db.Order("started_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}
