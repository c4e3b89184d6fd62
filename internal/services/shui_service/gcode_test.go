package shui_service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
)

type resultRecorder struct {
	calls   int
	results []*string
}

func (r *resultRecorder) callback(result *string) {
	r.calls++
	r.results = append(r.results, result)
}

func (r *resultRecorder) last() *string {
	if len(r.results) == 0 {
		return nil
	}
	return r.results[len(r.results)-1]
}

func newTestEngine() (*Engine, *[]string) {
	written := &[]string{}
	e := NewEngine(func(gcode string) { *written = append(*written, gcode) }, logging.Nop(), metrics.NewRecorder("test"))
	return e, written
}

func TestLineClassification(t *testing.T) {
	cases := []struct {
		line    string
		busy    bool
		ok      bool
		control bool
	}{
		{"busy: processing", true, false, true},
		{"busyok T0:200/210 B:60/60", true, false, true},
		{"busyT0:200/210", true, false, true},
		{"ok", false, true, true},
		{"ok T0:200/210 B:60/60", false, true, true},
		{"T0:200/210 B:60/60", false, true, true},
		{"SD printing byte 10/100", false, false, false},
		{"Current file: BENCHY.GCO", false, false, false},
		{"", false, false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.busy, IsBusyLine(tc.line), tc.line)
		assert.Equal(t, tc.ok, IsOkLine(tc.line), tc.line)
		assert.Equal(t, tc.control, IsControlLine(tc.line), tc.line)
	}
}

func TestEngineWaitsForPreamble(t *testing.T) {
	e, written := newTestEngine()
	e.Submit("M27", nil, 0)

	e.OnReadingDone(2)
	require.Empty(t, *written)

	e.OnReadingDone(3)
	require.Equal(t, []string{"M27"}, *written)

	// голова уже отправлена, повторной записи нет
	e.OnReadingDone(4)
	require.Equal(t, []string{"M27"}, *written)
}

func TestEngineCollectsPayloadUntilControlLine(t *testing.T) {
	e, _ := newTestEngine()
	rec := &resultRecorder{}
	e.Submit("M27", rec.callback, 0)
	e.OnReadingDone(3)

	e.OnLine("SD printing byte 10/100", 3)
	e.OnLine("extra line", 4)
	require.Zero(t, rec.calls)

	e.OnLine("ok", 5)
	require.Equal(t, 1, rec.calls)
	require.NotNil(t, rec.last())
	require.Equal(t, "SD printing byte 10/100\nextra line", *rec.last())
	require.True(t, e.AllDone())
}

func TestEngineEmptyResultAfterControlLines(t *testing.T) {
	e, _ := newTestEngine()
	rec := &resultRecorder{}
	e.Submit("M84", rec.callback, 1)
	e.OnReadingDone(3)

	for i := int64(0); i < MaxControlLinesAfterSubmission; i++ {
		e.OnLine("ok", 3+i)
	}
	require.Zero(t, rec.calls, "command must wait for more control lines")

	e.OnLine("ok", 3+MaxControlLinesAfterSubmission)
	require.Equal(t, 1, rec.calls)
	require.NotNil(t, rec.last(), "empty reply is a result, not a lost command")
	require.Equal(t, "", *rec.last())
}

func TestEngineRetriesStaleCommandOnce(t *testing.T) {
	e, written := newTestEngine()
	rec := &resultRecorder{}
	e.Submit("M140 S60", rec.callback, 1)
	e.OnReadingDone(10)

	// соединение пересоздано, счетчик строк начался заново
	e.OnLine("start", 0)
	require.Zero(t, rec.calls)
	require.Equal(t, 1, e.Pending())
	require.Equal(t, CommandEnqueued, e.queue[0].State)

	e.OnReadingDone(5)
	require.Equal(t, []string{"M140 S60", "M140 S60"}, *written)

	e.OnLine("start", 1)
	require.Equal(t, 1, rec.calls)
	require.Nil(t, rec.last())
	require.True(t, e.AllDone())
}

func TestEngineStaleWithoutRetriesResolvesNil(t *testing.T) {
	e, written := newTestEngine()
	rec := &resultRecorder{}
	e.Submit("M27", rec.callback, 0)
	e.OnReadingDone(7)

	e.OnLine("ok", 2)
	require.Equal(t, 1, rec.calls)
	require.Nil(t, rec.last())
	require.Len(t, *written, 1)
}

func TestEngineSendsOnlyHead(t *testing.T) {
	e, written := newTestEngine()
	first, second := &resultRecorder{}, &resultRecorder{}
	e.Submit("M27", first.callback, 0)
	e.Submit("M27 C", second.callback, 0)

	e.OnReadingDone(3)
	require.Equal(t, []string{"M27"}, *written)

	e.OnLine("Not SD printing", 3)
	e.OnLine("ok", 4)
	require.Equal(t, 1, first.calls)
	require.Zero(t, second.calls)

	e.OnReadingDone(5)
	require.Equal(t, []string{"M27", "M27 C"}, *written)
}

func TestEngineCallbackMaySubmit(t *testing.T) {
	e, _ := newTestEngine()
	e.Submit("M27", func(*string) {
		e.Submit("M220", nil, 0)
	}, 0)
	e.OnReadingDone(3)
	e.OnLine("payload", 3)
	e.OnLine("ok", 4)

	require.Equal(t, 1, e.Pending())
	require.Equal(t, "M220", e.queue[0].GCode)
}

func TestEngineCancelAllSkipsCallbacks(t *testing.T) {
	e, _ := newTestEngine()
	rec := &resultRecorder{}
	e.Submit("M27", rec.callback, 1)
	e.Submit("M27 C", rec.callback, 1)
	e.OnReadingDone(3)

	e.CancelAll()
	require.True(t, e.AllDone())

	e.OnLine("payload", 3)
	e.OnLine("ok", 4)
	require.Zero(t, rec.calls)
}

func TestEngineTrimsMultilineCommand(t *testing.T) {
	e, written := newTestEngine()
	e.Submit("M117 hello\nM84", nil, 0)
	e.OnReadingDone(3)
	require.Equal(t, []string{"M117 hello"}, *written)
}
