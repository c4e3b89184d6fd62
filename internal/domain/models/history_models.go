package models

import "time"

// FinishReason описывает, чем закончилась печать.
type FinishReason string

const (
	FinishReasonUnknown     FinishReason = "unknown"
	FinishReasonComplete    FinishReason = "complete"
	FinishReasonInterrupted FinishReason = "interrupted"
)

// LastKnownProgress - последнее наблюдавшееся состояние печати.
type LastKnownProgress struct {
	Progress            float64 `json:"progress"`
	CurrentBytesPrinted int64   `json:"current_bytes_printed"`
	TargetBytesPrinted  int64   `json:"target_bytes_printed"`
	Layer               int64   `json:"layer"`
	Height              float64 `json:"height"`
}

// HistoryEntry - запись об одной сессии печати.
// Открывается при старте печати и закрывается (EndedAt != nil) при её завершении.
type HistoryEntry struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	FileID       string            `json:"file_id"`
	StartedAt    time.Time         `json:"started_at"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
	LastKnown    LastKnownProgress `json:"last_known"`
	FinishReason FinishReason      `json:"finish_reason"`
}
