package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	namespace = "shui"

	linesReadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "lines_read_total",
			Help:      "Total number of lines received from the printer",
		},
		[]string{"printer"},
	)

	timeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "timeouts_total",
			Help:      "Total number of liveness timeouts on the printer socket",
		},
		[]string{"printer"},
	)

	connectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "connect_failures_total",
			Help:      "Total number of failed connection attempts",
		},
		[]string{"printer"},
	)

	connected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "connected",
			Help:      "Printer socket state (0=down, 1=up)",
		},
		[]string{"printer"},
	)

	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gcode",
			Name:      "commands_total",
			Help:      "Total number of gcode commands by outcome",
		},
		[]string{"printer", "outcome"},
	)

	queueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gcode",
			Name:      "queue_length",
			Help:      "Number of gcode commands waiting or in flight",
		},
		[]string{"printer"},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Total number of uploads by result",
		},
		[]string{"printer", "result"},
	)

	historyEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "entries_total",
			Help:      "Total number of sealed history entries by finish reason",
		},
		[]string{"printer", "reason"},
	)
)

// Исходы команды gcode.
const (
	OutcomeOk        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeRetried   = "retried"
	OutcomeLost      = "lost"
	OutcomeCancelled = "cancelled"
)

// Recorder пишет метрики одного принтера. Нулевое значение пишет метрики с пустой меткой.
type Recorder struct {
	printer string
}

func NewRecorder(printer string) *Recorder {
	return &Recorder{printer: printer}
}

func (r *Recorder) LineRead() {
	linesReadTotal.WithLabelValues(r.printer).Inc()
}

func (r *Recorder) Timeout() {
	timeoutsTotal.WithLabelValues(r.printer).Inc()
}

func (r *Recorder) ConnectFailed() {
	connectFailuresTotal.WithLabelValues(r.printer).Inc()
}

func (r *Recorder) SetConnected(up bool) {
	v := 0.0
	if up {
		v = 1
	}
	connected.WithLabelValues(r.printer).Set(v)
}

func (r *Recorder) Command(outcome string) {
	commandsTotal.WithLabelValues(r.printer, outcome).Inc()
}

func (r *Recorder) CommandsCancelled(n int) {
	commandsTotal.WithLabelValues(r.printer, OutcomeCancelled).Add(float64(n))
}

func (r *Recorder) QueueLength(n int) {
	queueLength.WithLabelValues(r.printer).Set(float64(n))
}

func (r *Recorder) Upload(result string) {
	uploadsTotal.WithLabelValues(r.printer, result).Inc()
}

func (r *Recorder) HistoryEntry(reason string) {
	historyEntriesTotal.WithLabelValues(r.printer, reason).Inc()
}
