package shui_service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
)

type stateRecorder struct {
	states []*models.PrinterState
}

func (r *stateRecorder) sink(state *models.PrinterState) {
	r.states = append(r.states, state)
}

// newTestPrinter создает принтер без запущенного цикла: методы выполняются в тестовой горутине.
func newTestPrinter(t *testing.T) (*Printer, *stateRecorder) {
	t.Helper()
	p, err := NewPrinter(Config{Host: "127.0.0.1", DataDir: t.TempDir()}, logging.Nop(), metrics.NewRecorder("test"))
	require.NoError(t, err)
	rec := &stateRecorder{}
	p.AddStateSink(rec.sink)
	return p, rec
}

func TestParseTemperatures(t *testing.T) {
	s := &models.PrinterState{}
	require.True(t, applyTemperatures(s, "ok T0:205.4 /210.0 B:59.6/ 60"))
	require.Equal(t, 205.0, s.ExtruderTemperature)
	require.Equal(t, 210.0, s.TargetExtruderTemperature)
	require.Equal(t, 60.0, s.BedTemperature)
	require.Equal(t, 60.0, s.TargetBedTemperature)

	require.False(t, applyTemperatures(s, "ok T0:205/210 B:60/60"))
	require.False(t, applyTemperatures(s, "ok"))
}

func TestHeaterRules(t *testing.T) {
	s := &models.PrinterState{
		ExtruderTemperature: 25, TargetExtruderTemperature: 210,
		BedTemperature: 24, TargetBedTemperature: 60,
	}
	require.True(t, isHeating(s))
	require.False(t, heatersAtTarget(s))

	s.BedTemperature = 55
	require.False(t, isHeating(s), "one heater at target is not heating")
	require.False(t, heatersAtTarget(s))

	s.ExtruderTemperature = 201
	require.True(t, heatersAtTarget(s))

	cold := &models.PrinterState{ExtruderTemperature: 25, BedTemperature: 24}
	require.True(t, heatersAtTarget(cold), "heaters without a target are at target")
	require.False(t, isHeating(cold))
}

func TestStateCreationIsAChange(t *testing.T) {
	p, rec := newTestPrinter(t)
	require.Nil(t, p.GetPrinterState())

	p.updateFromFeedRate("FR:100%")
	require.Len(t, rec.states, 1)
	require.EqualValues(t, 100, rec.states[0].FeedRatePercent)

	p.updateFromFeedRate("FR:100%")
	require.Len(t, rec.states, 1, "unchanged reply must not notify")

	p.updateFromFeedRate("echo: garbage")
	require.Len(t, rec.states, 1)
}

func TestHeatingThenPrinting(t *testing.T) {
	p, rec := newTestPrinter(t)

	p.updateFromControlLine("busy: processing T0:25/210 B:24/60")
	state := p.GetPrinterState()
	require.NotNil(t, state.Print)
	require.Equal(t, models.PrintStatusHeating, state.Print.Status)

	p.updateFromControlLine("ok T0:205/210 B:59/60")
	state = p.GetPrinterState()
	require.Equal(t, models.PrintStatusHeating, state.Print.Status, "ok lines never change the status")

	p.updateFromControlLine("ok T0:210/210 B:60/60")
	p.updateFromSDStatus("SD printing byte 100/1000")
	state = p.GetPrinterState()
	require.Equal(t, models.PrintStatusPrinting, state.Print.Status)
	require.EqualValues(t, 100, state.Print.CurrentBytesPrinted)
	require.EqualValues(t, 1000, state.Print.TargetBytesPrinted)

	last := rec.states[len(rec.states)-1]
	require.Equal(t, models.PrintStatusPrinting, last.Print.Status)
}

func TestBusyLineWithoutHeatingIsBusy(t *testing.T) {
	p, _ := newTestPrinter(t)
	p.updateFromControlLine("ok T0:210/210 B:60/60")
	require.Nil(t, p.GetPrinterState().Print)

	p.updateFromControlLine("busy: processing")
	state := p.GetPrinterState()
	require.NotNil(t, state.Print)
	require.Equal(t, models.PrintStatusBusy, state.Print.Status)
}

func TestNotSDPrintingClearsPrintOnce(t *testing.T) {
	p, rec := newTestPrinter(t)
	p.updateFromSDStatus("SD printing byte 10/100")
	require.NotNil(t, p.GetPrinterState().Print)

	before := len(rec.states)
	p.updateFromSDStatus("Not SD printing")
	require.Len(t, rec.states, before+1)
	require.Nil(t, rec.states[len(rec.states)-1].Print)

	p.updateFromSDStatus("Not SD printing")
	require.Len(t, rec.states, before+1)
}

func TestSelectedFileResolvesShortNameAndProgress(t *testing.T) {
	p, _ := newTestPrinter(t)

	var runtime models.RuntimeIndex
	runtime.Append(0, models.RuntimeState{})
	runtime.Append(500, models.RuntimeState{Percent: 50, Layer: 10, Height: 2})
	runtime.Append(1000, models.RuntimeState{Percent: 100, Layer: 20, Height: 4})
	_, err := p.store.Commit("benchy.gcode", "00000000000000aa", runtime, models.FileMetadata{})
	require.NoError(t, err)

	p.updateFromSelectedFile("Current file: BENCHY__.GCO benchy.gcode")
	state := p.GetPrinterState()
	require.NotNil(t, state.Print)
	require.Equal(t, "benchy.gcode", state.Print.Filename)

	p.updateFromSDStatus("SD printing byte 400/1000")
	state = p.GetPrinterState()
	require.Equal(t, 50.0, state.Print.Progress)
	require.EqualValues(t, 10, state.Print.Layer)
	require.Equal(t, 2.0, state.Print.Height)

	pending := p.PendingPrint()
	require.NotNil(t, pending)
	require.Equal(t, "benchy.gcode", pending.Filename)
	require.Equal(t, "00000000000000aa", pending.FileID)

	p.updateFromSelectedFile("Current file: (no file)")
	require.Nil(t, p.GetPrinterState().Print)

	history := p.History()
	require.Len(t, history, 1)
	require.Equal(t, models.FinishReasonInterrupted, history[0].FinishReason)
	require.Equal(t, 50.0, history[0].LastKnown.Progress)
}

func TestSelectedFileNamesAnonymousPrint(t *testing.T) {
	p, _ := newTestPrinter(t)
	p.updateFromSDStatus("SD printing byte 10/100")
	p.updateFromSelectedFile("Current file: model.gcode")

	state := p.GetPrinterState()
	require.Equal(t, "model.gcode", state.Print.Filename)
	require.EqualValues(t, 10, state.Print.CurrentBytesPrinted, "naming a detected print keeps its progress")

	p.updateFromSelectedFile("Current file: other.gcode")
	state = p.GetPrinterState()
	require.Equal(t, "other.gcode", state.Print.Filename)
	require.Zero(t, state.Print.CurrentBytesPrinted)
}

func TestSelectedFileEmptyNameKeepsPrint(t *testing.T) {
	p, rec := newTestPrinter(t)
	p.updateFromSDStatus("SD printing byte 10/100")
	before := len(rec.states)

	p.updateFromSelectedFile("Current file: ")
	p.updateFromSelectedFile("Current file:   ")

	require.NotNil(t, p.GetPrinterState().Print)
	require.EqualValues(t, 10, p.GetPrinterState().Print.CurrentBytesPrinted)
	require.Len(t, rec.states, before, "empty name must not notify")
}

func TestUnreachableThresholds(t *testing.T) {
	p, rec := newTestPrinter(t)
	p.updateFromControlLine("ok T0:20/0 B:20/0")
	p.engine.Submit("M27", nil, 0)

	for i := int64(1); i < UnreachableAfterTimeouts; i++ {
		p.onTimeout(i)
	}
	require.True(t, p.IsConnected())
	require.Equal(t, 1, p.engine.Pending())

	p.onTimeout(UnreachableAfterTimeouts)
	require.False(t, p.IsConnected())
	require.True(t, p.engine.AllDone())
	require.Nil(t, rec.states[len(rec.states)-1])

	p.updateFromControlLine("ok")
	require.True(t, p.IsConnected())
	for i := int64(1); i <= UnreachableAfterConnectFailures; i++ {
		p.onConnectFailed(i)
	}
	require.False(t, p.IsConnected())
}

func TestReportSequenceOnlyWhenIdle(t *testing.T) {
	p, _ := newTestPrinter(t)

	p.onLine("ok", 0)
	require.Equal(t, 3, p.engine.Pending())
	require.Equal(t, reportSDStatus, p.engine.queue[0].GCode)
	require.Equal(t, reportSelectedFile, p.engine.queue[1].GCode)
	require.Equal(t, reportFeedRate, p.engine.queue[2].GCode)

	p.onLine("ok", 1)
	require.Equal(t, 3, p.engine.Pending())
}

func TestControlOpsWhenDisconnected(t *testing.T) {
	p, _ := newTestPrinter(t)

	var results []models.GCodeResult
	p.SetBedTemperature(60, func(r models.GCodeResult) { results = append(results, r) })
	p.CancelPrint(func(r models.GCodeResult) { results = append(results, r) })

	require.Equal(t, []models.GCodeResult{models.GCodeResultNoConnection, models.GCodeResultNoConnection}, results)
	require.True(t, p.engine.AllDone())
}

func TestControlOpsTemplates(t *testing.T) {
	p, _ := newTestPrinter(t)
	p.updateFromControlLine("ok")

	seconds := 5
	p.SetBedTemperature(60, nil)
	p.SetExtruderTemperature(210, nil)
	p.SetFeedRatePercent(120, nil)
	p.SetFanSpeed(255, nil)
	p.SetLCDMessage("hello\nworld", nil)
	p.SetDialogMessage("done", &seconds, nil)
	p.SetDialogMessage("done", nil, nil)
	p.PauseUntilUserInput("change filament", nil)
	p.PausePrint(nil)
	p.ResumePrint(nil)
	p.ReleaseMotors(nil)
	p.Identify(nil)
	p.CancelPrint(nil)

	var gcodes []string
	for _, cmd := range p.engine.queue {
		gcodes = append(gcodes, cmd.GCode)
		require.Equal(t, controlRetries, cmd.Retries)
	}
	require.Equal(t, []string{
		"M140 S60", "M104 T0 S210", "M220 S120", "M106 S255",
		"M117 hello", "M2011 S5 done", "M2011 done", "M0 change filament",
		"M25", "M24", "M84", "M300",
		"M25", "G91", "G1 Z20", "M84", "M84", "M106 S0",
	}, gcodes)
}

func TestControlResultMapping(t *testing.T) {
	p, _ := newTestPrinter(t)
	p.updateFromControlLine("ok")

	var results []models.GCodeResult
	collect := func(r models.GCodeResult) { results = append(results, r) }

	p.SetFanSpeed(0, collect)
	p.onTick(3)
	p.engine.OnLine("ok", 3)
	p.engine.OnLine("ok", 4)
	p.engine.OnLine("ok", 5)
	p.engine.OnLine("ok", 6)
	require.Equal(t, []models.GCodeResult{models.GCodeResultOk}, results)

	// ответ потерян дважды при живом принтере
	p.Identify(collect)
	p.onTick(10)
	p.engine.OnLine("x", 0)
	p.onTick(3)
	p.engine.OnLine("x", 0)
	require.Equal(t, models.GCodeResultBusy, results[len(results)-1])
}

func TestUnsupportedDefault(t *testing.T) {
	var u Unsupported
	var results []models.GCodeResult
	collect := func(r models.GCodeResult) { results = append(results, r) }

	u.SetBedTemperature(60, collect)
	u.SetExtruderTemperature(200, collect)
	u.SetFeedRatePercent(100, collect)
	u.SetFanSpeed(10, collect)
	u.SetLCDMessage("x", collect)
	u.SetDialogMessage("x", nil, collect)
	u.PauseUntilUserInput("x", collect)
	u.PausePrint(collect)
	u.ResumePrint(collect)
	u.CancelPrint(collect)
	u.ReleaseMotors(collect)
	u.Identify(collect)
	u.Identify(nil)

	require.Len(t, results, 12)
	for _, r := range results {
		require.Equal(t, models.GCodeResultUnsupported, r)
	}
}
