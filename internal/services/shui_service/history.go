package shui_service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
)

const (
	HistoryFileName = "history.json"

	completeProgress      = 99
	completeBytesFraction = 0.02
)

// HistorySink получает каждую закрытую запись журнала.
type HistorySink func(entry models.HistoryEntry)

// History ведет журнал печатей по уведомлениям об изменении состояния.
// Принадлежит циклу принтера.
type History struct {
	path    string
	hashes  func(longFilename string) (string, bool)
	logger  *logging.Logger
	metrics *metrics.Recorder
	sinks   []HistorySink
	now     func() time.Time

	entries []models.HistoryEntry
	pending *models.HistoryEntry
	last    *models.PrinterState
}

// NewHistory загружает журнал из dir/history.json. Отсутствующий файл означает пустой журнал.
func NewHistory(dir string, hashes func(string) (string, bool), logger *logging.Logger, recorder *metrics.Recorder) (*History, error) {
	h := &History{
		path:    filepath.Join(dir, HistoryFileName),
		hashes:  hashes,
		logger:  logger.WithPrefix("HISTORY"),
		metrics: recorder,
		now:     time.Now,
	}

	data, err := os.ReadFile(h.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return h, nil
	case err != nil:
		return nil, fmt.Errorf("read history: %w", err)
	}
	if err := json.Unmarshal(data, &h.entries); err != nil {
		h.logger.Warn("History file is corrupt, starting with an empty log", "path", h.path, "error", err)
		h.entries = nil
	}
	return h, nil
}

// Subscribe добавляет получателя закрытых записей.
func (h *History) Subscribe(sink HistorySink) {
	h.sinks = append(h.sinks, sink)
}

// Entries возвращает копию закрытых записей.
func (h *History) Entries() []models.HistoryEntry {
	return append([]models.HistoryEntry(nil), h.entries...)
}

// Pending возвращает копию открытой записи или nil.
func (h *History) Pending() *models.HistoryEntry {
	if h.pending == nil {
		return nil
	}
	entry := *h.pending
	return &entry
}

// OnStateChanged открывает или закрывает запись по новому снимку состояния.
func (h *History) OnStateChanged(state *models.PrinterState) {
	active := state != nil && state.Print != nil && state.Print.Filename != ""

	if h.pending != nil && !active {
		h.seal()
	}
	if h.pending == nil && active {
		h.open(state.Print.Filename)
	}

	h.last = state.Clone()
}

func (h *History) open(filename string) {
	entry := &models.HistoryEntry{
		ID:           uuid.NewString(),
		Filename:     filename,
		StartedAt:    h.now(),
		FinishReason: models.FinishReasonUnknown,
	}
	if h.hashes != nil {
		if hash, ok := h.hashes(filename); ok {
			entry.FileID = hash
		}
	}
	h.pending = entry
	h.logger.Info("Print started", "file", filename, "file_id", entry.FileID, "id", entry.ID)
}

func (h *History) seal() {
	entry := *h.pending
	h.pending = nil

	ended := h.now()
	entry.EndedAt = &ended

	if h.last != nil && h.last.Print != nil {
		p := h.last.Print
		entry.LastKnown = models.LastKnownProgress{
			Progress:            p.Progress,
			CurrentBytesPrinted: p.CurrentBytesPrinted,
			TargetBytesPrinted:  p.TargetBytesPrinted,
			Layer:               p.Layer,
			Height:              p.Height,
		}
		entry.FinishReason = finishReason(p)
	} else {
		entry.FinishReason = models.FinishReasonUnknown
	}

	h.entries = append(h.entries, entry)
	h.metrics.HistoryEntry(string(entry.FinishReason))
	h.logger.Info("Print finished", "file", entry.Filename, "reason", entry.FinishReason, "progress", entry.LastKnown.Progress)

	if err := h.save(); err != nil {
		h.logger.Error("Failed to persist history", "path", h.path, "error", err)
	}
	for _, sink := range h.sinks {
		sink(entry)
	}
}

func finishReason(p *models.PrintState) models.FinishReason {
	left := p.TargetBytesPrinted - p.CurrentBytesPrinted
	if p.Progress >= completeProgress || float64(left) < float64(p.TargetBytesPrinted)*completeBytesFraction {
		return models.FinishReasonComplete
	}
	return models.FinishReasonInterrupted
}

func (h *History) save() error {
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, h.path)
}
