package models

import "time"

// ExportKind - тип сообщения, публикуемого во внешние системы.
type ExportKind string

const (
	ExportKindState   ExportKind = "state"
	ExportKindHistory ExportKind = "history"
)

// ExportMessage - сообщение Kafka со снимком состояния или закрытой записью журнала.
// State равен nil, когда принтер стал недоступен.
type ExportMessage struct {
	Kind      ExportKind    `json:"kind"`
	Printer   string        `json:"printer"`
	Timestamp time.Time     `json:"timestamp"`
	State     *PrinterState `json:"state,omitempty"`
	Entry     *HistoryEntry `json:"entry,omitempty"`
}
