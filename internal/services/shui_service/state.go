package shui_service

import (
	"strings"

	"github.com/iwtcode/shuiService/internal/domain/models"
)

const (
	// Столько таймаутов подряд означают, что принтер недоступен.
	UnreachableAfterTimeouts = 4
	// Столько неудачных подключений подряд означают, что принтер недоступен.
	UnreachableAfterConnectFailures = 6
)

// StateSink получает снимок после каждого изменения состояния.
// Вызывается в потоке цикла и не должен блокироваться.
type StateSink func(state *models.PrinterState)

// Команды отчета, которые уходят принтеру каждый раз, когда очередь пуста.
const (
	reportSDStatus     = "M27"
	reportSelectedFile = "M27 C"
	reportFeedRate     = "M220"
)

// ensureState создает состояние при первом разборе. Создание считается изменением.
func (p *Printer) ensureState() (*models.PrinterState, bool) {
	if p.state != nil {
		return p.state, false
	}
	p.state = &models.PrinterState{}
	p.logger.Info("Printer is reachable")
	return p.state, true
}

// ensurePrint создает печать со статусом Busy, если ее нет.
func ensurePrint(s *models.PrinterState) bool {
	if s.Print != nil {
		return false
	}
	s.Print = &models.PrintState{Status: models.PrintStatusBusy}
	return true
}

// notify раздает снимок журналу и подписчикам.
func (p *Printer) notify() {
	snapshot := p.state.Clone()
	p.history.OnStateChanged(snapshot)
	for _, sink := range p.sinks {
		sink(snapshot.Clone())
	}
}

func (p *Printer) submitReportSequence() {
	if !p.engine.AllDone() {
		return
	}
	p.engine.Submit(reportSDStatus, func(result *string) {
		if result != nil {
			p.updateFromSDStatus(*result)
		}
	}, 0)
	p.engine.Submit(reportSelectedFile, func(result *string) {
		if result != nil {
			p.updateFromSelectedFile(*result)
		}
	}, 0)
	p.engine.Submit(reportFeedRate, func(result *string) {
		if result != nil {
			p.updateFromFeedRate(*result)
		}
	}, 0)
}

// updateFromControlLine разбирает температуры и маркер занятости из служебной строки.
func (p *Printer) updateFromControlLine(line string) {
	state, changed := p.ensureState()
	if applyTemperatures(state, line) {
		changed = true
	}

	if IsBusyLine(line) {
		if ensurePrint(state) {
			changed = true
		}
		status := models.PrintStatusBusy
		if isHeating(state) {
			status = models.PrintStatusHeating
		}
		if setStatus(state.Print, status) {
			changed = true
		}
	}

	if changed {
		p.notify()
	}
}

// updateFromSDStatus разбирает ответ M27.
func (p *Printer) updateFromSDStatus(text string) {
	state, changed := p.ensureState()

	switch {
	case strings.Contains(text, notSDPrinting):
		if state.Print != nil {
			state.Print = nil
			changed = true
		}

	default:
		current, target, ok := parseSDProgress(text)
		if !ok {
			p.logger.Debug("Unrecognised SD status", "reply", text)
			break
		}
		if ensurePrint(state) {
			changed = true
		}
		job := state.Print
		if job.CurrentBytesPrinted != current || job.TargetBytesPrinted != target {
			job.CurrentBytesPrinted, job.TargetBytesPrinted = current, target
			changed = true
		}

		switch {
		case heatersAtTarget(state):
			changed = setStatus(job, models.PrintStatusPrinting) || changed
		case isHeating(state):
			changed = setStatus(job, models.PrintStatusHeating) || changed
		}

		if job.Filename != "" {
			if index, ok := p.store.GetRuntimeData(job.Filename); ok {
				rs := index.GetStateNear(current)
				if job.Progress != rs.Percent || job.Layer != rs.Layer || job.Height != rs.Height {
					job.Progress, job.Layer, job.Height = rs.Percent, rs.Layer, rs.Height
					changed = true
				}
			}
		}
	}

	if changed {
		p.notify()
	}
}

// resolveFilename переводит имя 8.3 в длинное имя: сначала целиком, затем по первому слову.
func (p *Printer) resolveFilename(name string) string {
	if long, ok := p.store.GetLongFilename(name); ok {
		return long
	}
	if fields := strings.Fields(name); len(fields) > 0 {
		if long, ok := p.store.GetLongFilename(fields[0]); ok {
			return long
		}
	}
	return name
}

// updateFromSelectedFile разбирает ответ M27 C.
func (p *Printer) updateFromSelectedFile(text string) {
	name, ok := parseSelectedFile(text)
	if !ok {
		p.logger.Debug("Unrecognised selected file reply", "reply", text)
		return
	}

	if name == "" {
		return
	}

	state, changed := p.ensureState()
	selected := name != noFileSelected
	if selected {
		name = p.resolveFilename(name)
	}

	switch {
	case selected && state.Print == nil:
		state.Print = &models.PrintState{Filename: name, Status: models.PrintStatusBusy}
		changed = true
	case selected && state.Print.Filename == "":
		// печать уже обнаружена по байтам или маркеру занятости, имя приходит позже
		state.Print.Filename = name
		changed = true
	case selected && state.Print.Filename != name:
		state.Print = &models.PrintState{Filename: name, Status: models.PrintStatusBusy}
		changed = true
	case !selected && state.Print != nil:
		state.Print = nil
		changed = true
	}

	if changed {
		p.notify()
	}
}

// updateFromFeedRate разбирает ответ M220.
func (p *Printer) updateFromFeedRate(text string) {
	state, changed := p.ensureState()
	if percent, ok := parseFeedRate(text); ok {
		if state.FeedRatePercent != percent {
			state.FeedRatePercent = percent
			changed = true
		}
	} else {
		p.logger.Debug("Unrecognised feed rate reply", "reply", text)
	}

	if changed {
		p.notify()
	}
}

// markUnreachable сбрасывает состояние и очередь команд.
func (p *Printer) markUnreachable(reason string, count int64) {
	p.engine.CancelAll()
	if p.state == nil {
		return
	}
	p.logger.Warn("Printer is unreachable", "reason", reason, "count", count)
	p.state = nil
	p.notify()
}

func (p *Printer) onConnect() {}

func (p *Printer) onConnectFailed(attempts int64) {
	if attempts >= UnreachableAfterConnectFailures {
		p.markUnreachable("connect_failures", attempts)
	}
}

func (p *Printer) onTimeout(timeouts int64) {
	if timeouts >= UnreachableAfterTimeouts {
		p.markUnreachable("timeouts", timeouts)
	}
}

func (p *Printer) onLine(line string, index int64) {
	if IsControlLine(line) {
		p.submitReportSequence()
		p.updateFromControlLine(line)
	}
	p.engine.OnLine(line, index)
}

func (p *Printer) onTick(lines int64) {
	p.engine.OnReadingDone(lines)
}
