package shui_service

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/iwtcode/shuiService/internal/domain/entities"
	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/interfaces"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
)

const (
	exportQueueSize = 256
	exportTimeout   = 5 * time.Second
)

// Exporter публикует снимки и записи журнала в Kafka и архив вне цикла принтера.
// producer и archive могут быть nil.
type Exporter struct {
	printer  string
	producer interfaces.KafkaService
	archive  interfaces.HistoryArchive
	jobs     chan func(ctx context.Context)
	logger   *logging.Logger
	now      func() time.Time
}

func NewExporter(printer string, producer interfaces.KafkaService, archive interfaces.HistoryArchive, logger *logging.Logger) *Exporter {
	return &Exporter{
		printer:  printer,
		producer: producer,
		archive:  archive,
		jobs:     make(chan func(ctx context.Context), exportQueueSize),
		logger:   logger.WithPrefix("EXPORT"),
		now:      time.Now,
	}
}

// Attach подписывает экспорт на события принтера.
func (e *Exporter) Attach(p *Printer) {
	p.AddStateSink(e.PublishState)
	p.AddHistorySink(e.PublishHistory)
}

// Run выполняет задания публикации до отмены ctx.
func (e *Exporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-e.jobs:
			jobCtx, cancel := context.WithTimeout(ctx, exportTimeout)
			job(jobCtx)
			cancel()
		}
	}
}

func (e *Exporter) enqueue(kind models.ExportKind, job func(ctx context.Context)) {
	select {
	case e.jobs <- job:
	default:
		e.logger.Warn("Export queue is full, dropping message", "kind", kind)
	}
}

// PublishState отправляет снимок состояния. Не блокирует вызывающего.
func (e *Exporter) PublishState(state *models.PrinterState) {
	if e.producer == nil {
		return
	}
	msg := models.ExportMessage{
		Kind:      models.ExportKindState,
		Printer:   e.printer,
		Timestamp: e.now(),
		State:     state,
	}
	e.enqueue(msg.Kind, func(ctx context.Context) { e.produce(ctx, msg) })
}

// PublishHistory отправляет закрытую запись в Kafka и сохраняет в архив.
func (e *Exporter) PublishHistory(entry models.HistoryEntry) {
	if e.producer == nil && e.archive == nil {
		return
	}
	msg := models.ExportMessage{
		Kind:      models.ExportKindHistory,
		Printer:   e.printer,
		Timestamp: e.now(),
		Entry:     &entry,
	}
	e.enqueue(msg.Kind, func(ctx context.Context) {
		if e.archive != nil {
			if err := e.archive.Save(entities.NewPrintHistoryEntry(entry)); err != nil {
				e.logger.Error("Failed to archive history entry", "id", entry.ID, "error", err)
			}
		}
		if e.producer != nil {
			e.produce(ctx, msg)
		}
	})
}

func (e *Exporter) produce(ctx context.Context, msg models.ExportMessage) {
	value, err := json.Marshal(msg)
	if err != nil {
		e.logger.Error("Failed to serialize data for Kafka", "kind", msg.Kind, "error", err)
		return
	}
	if err := e.producer.Produce(ctx, []byte(e.printer), value); err != nil {
		e.logger.Error("Failed to send data to Kafka", "kind", msg.Kind, "error", err)
	}
}
