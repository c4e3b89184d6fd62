package entities

import (
	"time"

	"github.com/iwtcode/shuiService/internal/domain/models"
)

// PrintHistoryEntry - архивная копия закрытой записи журнала печатей.
type PrintHistoryEntry struct {
	ID                  string     `gorm:"primaryKey;not null" json:"id"`
	Filename            string     `gorm:"not null;index" json:"filename"`
	FileID              string     `gorm:"index" json:"file_id"`
	StartedAt           time.Time  `gorm:"not null" json:"started_at"`
	EndedAt             *time.Time `json:"ended_at"`
	Progress            float64    `json:"progress"`
	CurrentBytesPrinted int64      `json:"current_bytes_printed"`
	TargetBytesPrinted  int64      `json:"target_bytes_printed"`
	Layer               int64      `json:"layer"`
	Height              float64    `json:"height"`
	FinishReason        string     `gorm:"not null" json:"finish_reason"` // unknown / complete / interrupted
	CreatedAt           time.Time  `json:"created_at"`
}

// NewPrintHistoryEntry переводит закрытую запись журнала в архивную.
func NewPrintHistoryEntry(entry models.HistoryEntry) *PrintHistoryEntry {
	return &PrintHistoryEntry{
		ID:                  entry.ID,
		Filename:            entry.Filename,
		FileID:              entry.FileID,
		StartedAt:           entry.StartedAt,
		EndedAt:             entry.EndedAt,
		Progress:            entry.LastKnown.Progress,
		CurrentBytesPrinted: entry.LastKnown.CurrentBytesPrinted,
		TargetBytesPrinted:  entry.LastKnown.TargetBytesPrinted,
		Layer:               entry.LastKnown.Layer,
		Height:              entry.LastKnown.Height,
		FinishReason:        string(entry.FinishReason),
	}
}

// ToModel переводит архивную запись обратно в запись журнала.
func (e *PrintHistoryEntry) ToModel() models.HistoryEntry {
	return models.HistoryEntry{
		ID:        e.ID,
		Filename:  e.Filename,
		FileID:    e.FileID,
		StartedAt: e.StartedAt,
		EndedAt:   e.EndedAt,
		LastKnown: models.LastKnownProgress{
			Progress:            e.Progress,
			CurrentBytesPrinted: e.CurrentBytesPrinted,
			TargetBytesPrinted:  e.TargetBytesPrinted,
			Layer:               e.Layer,
			Height:              e.Height,
		},
		FinishReason: models.FinishReason(e.FinishReason),
	}
}
