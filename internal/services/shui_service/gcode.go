package shui_service

import (
	"strings"

	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
)

const (
	// Столько строк принтер присылает после каждого подключения, до них писать нельзя.
	PreambleLines = 3
	// Столько служебных строк без данных подряд завершают команду с пустым результатом.
	MaxControlLinesAfterSubmission = 3
)

var (
	busyPrefixes = []string{"busy", "busyok T0:", "busyT0:"}
	okPrefixes   = []string{"ok", "ok T0:", "T0"}
)

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// IsBusyLine сообщает, что строка - маркер занятости прошивки.
func IsBusyLine(line string) bool { return hasAnyPrefix(line, busyPrefixes) }

// IsOkLine сообщает, что строка - подтверждение прошивки.
func IsOkLine(line string) bool { return hasAnyPrefix(line, okPrefixes) }

// IsControlLine сообщает, что строка служебная, а не часть ответа на команду.
func IsControlLine(line string) bool { return IsBusyLine(line) || IsOkLine(line) }

type CommandState int

const (
	CommandEnqueued CommandState = iota
	CommandSent
)

// Command - команда в очереди движка. nil в OnResult означает, что ответ не получен.
type Command struct {
	GCode                       string
	OnResult                    func(result *string)
	Retries                     int
	State                       CommandState
	Accumulator                 string
	SubmittedAfterLine          int64
	ControlLinesAfterSubmission int
}

// Engine последовательно отправляет команды и сопоставляет им строки ответа.
// В полете всегда не больше одной команды - голова очереди.
type Engine struct {
	queue   []*Command
	write   func(gcode string)
	logger  *logging.Logger
	metrics *metrics.Recorder
}

func NewEngine(write func(gcode string), logger *logging.Logger, recorder *metrics.Recorder) *Engine {
	return &Engine{
		write:   write,
		logger:  logger.WithPrefix("GCODE"),
		metrics: recorder,
	}
}

// Submit ставит команду в очередь. Команда занимает ровно одну строку,
// все после первого перевода строки отбрасывается.
func (e *Engine) Submit(gcode string, onResult func(*string), retries int) {
	if i := strings.IndexByte(gcode, '\n'); i >= 0 {
		e.logger.Warn("Multi-line gcode trimmed to its first line", "gcode", gcode[:i])
		gcode = gcode[:i]
	}
	gcode = strings.TrimRight(gcode, "\r")

	e.queue = append(e.queue, &Command{GCode: gcode, OnResult: onResult, Retries: retries})
	e.metrics.QueueLength(len(e.queue))
}

// Pending возвращает количество команд в очереди, включая отправленную.
func (e *Engine) Pending() int { return len(e.queue) }

// AllDone сообщает, что очередь пуста.
func (e *Engine) AllDone() bool { return len(e.queue) == 0 }

// OnReadingDone отправляет голову очереди, если преамбула уже прочитана.
func (e *Engine) OnReadingDone(lastIndex int64) {
	if len(e.queue) == 0 || lastIndex < PreambleLines {
		return
	}

	current := e.queue[0]
	if current.State != CommandEnqueued {
		return
	}

	e.logger.Debug("Written", "gcode", current.GCode, "after_line", lastIndex)
	e.write(current.GCode)
	current.State = CommandSent
	current.SubmittedAfterLine = lastIndex
}

// OnLine сопоставляет строку принтера отправленной команде.
func (e *Engine) OnLine(line string, index int64) {
	if len(e.queue) == 0 {
		return
	}
	current := e.queue[0]
	if current.State != CommandSent {
		return
	}

	// соединение пересоздано, пока команда была в полете
	if index < current.SubmittedAfterLine {
		e.finish(current, nil)
		return
	}

	if !IsControlLine(line) {
		current.Accumulator += line + "\n"
		return
	}

	if current.Accumulator != "" {
		e.finishWithAccumulator(current)
		return
	}

	current.ControlLinesAfterSubmission++
	if current.ControlLinesAfterSubmission > MaxControlLinesAfterSubmission {
		e.finishWithAccumulator(current)
	}
}

func (e *Engine) finishWithAccumulator(current *Command) {
	result := strings.TrimSuffix(current.Accumulator, "\n")
	if result == "" {
		e.metrics.Command(metrics.OutcomeEmpty)
	} else {
		e.metrics.Command(metrics.OutcomeOk)
	}
	e.finish(current, &result)
}

func (e *Engine) finish(current *Command, result *string) {
	if result == nil && current.Retries > 0 {
		current.Retries--
		current.State = CommandEnqueued
		current.Accumulator = ""
		current.ControlLinesAfterSubmission = 0
		current.SubmittedAfterLine = 0
		e.metrics.Command(metrics.OutcomeRetried)
		e.logger.Debug("Retrying gcode", "gcode", current.GCode, "retries_left", current.Retries)
		return
	}
	if result == nil {
		e.metrics.Command(metrics.OutcomeLost)
		e.logger.Warn("Gcode lost", "gcode", current.GCode)
	}

	// Снимаем команду до вызова колбэка: он может поставить новые или очистить очередь.
	e.queue = e.queue[1:]
	e.metrics.QueueLength(len(e.queue))

	if current.OnResult != nil {
		current.OnResult(result)
	}
}

// CancelAll очищает очередь без вызова колбэков.
func (e *Engine) CancelAll() {
	if len(e.queue) == 0 {
		return
	}
	e.logger.Info("Cancelling queued gcode", "count", len(e.queue))
	e.metrics.CommandsCancelled(len(e.queue))
	e.queue = nil
	e.metrics.QueueLength(0)
}
