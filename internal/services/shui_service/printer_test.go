package shui_service

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

const preamble = "start\necho: SHUI ready\nok\n"

// fakePrinter эмулирует прошивку: преамбула, ответы на gcode и периодический отчет температур.
// В режиме hangup принтер отдает преамбулу, рвет соединение и перестает принимать новые.
type fakePrinter struct {
	ln      net.Listener
	hangup  bool
	replies map[string]string

	mu       sync.Mutex
	received []string
	accepted int
}

func startFakePrinter(t *testing.T, hangup bool) *fakePrinter {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakePrinter{
		ln:     ln,
		hangup: hangup,
		replies: map[string]string{
			"M27":   "SD printing byte 100/1000\nok\n",
			"M27 C": "Current file: cube.gcode\nok\n",
			"M220":  "FR:100%\nok\n",
		},
	}
	t.Cleanup(func() { ln.Close() })
	go f.serve()
	return f
}

func (f *fakePrinter) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakePrinter) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.accepted++
		f.mu.Unlock()
		go f.handle(conn)
	}
}

func (f *fakePrinter) handle(conn net.Conn) {
	defer conn.Close()

	var wmu sync.Mutex
	write := func(s string) {
		wmu.Lock()
		defer wmu.Unlock()
		_, _ = io.WriteString(conn, s)
	}
	write(preamble)
	if f.hangup {
		f.ln.Close()
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				write("T0:210/210 B:60/60\n")
			}
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		f.mu.Lock()
		f.received = append(f.received, line)
		f.mu.Unlock()
		reply, ok := f.replies[line]
		if !ok {
			reply = "ok\n"
		}
		write(reply)
	}
}

func (f *fakePrinter) hasReceived(gcode string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range f.received {
		if line == gcode {
			return true
		}
	}
	return false
}

func (f *fakePrinter) connections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted
}

func runTestPrinter(t *testing.T, f *fakePrinter, timeout time.Duration) *Printer {
	t.Helper()
	p, err := NewPrinter(Config{
		Host:    "127.0.0.1",
		Port:    f.port(),
		Timeout: timeout,
		DataDir: t.TempDir(),
	}, logging.Nop(), metrics.NewRecorder("test-"+strconv.Itoa(f.port())))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := p.RunAsync(ctx)
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errCh)
	})
	return p
}

func TestPrinterPollsState(t *testing.T) {
	f := startFakePrinter(t, false)
	p := runTestPrinter(t, f, 2*time.Second)

	require.Eventually(t, func() bool {
		s := p.GetPrinterState()
		return s != nil && s.Print != nil &&
			s.Print.Filename == "cube.gcode" &&
			s.Print.CurrentBytesPrinted == 100 &&
			s.FeedRatePercent == 100 &&
			s.ExtruderTemperature == 210
	}, 5*time.Second, 20*time.Millisecond)

	state := p.GetPrinterState()
	require.Equal(t, models.PrintStatusPrinting, state.Print.Status)
	require.Equal(t, 210.0, state.ExtruderTemperature)
	require.True(t, p.IsConnected())
	require.NotNil(t, p.PendingPrint())
}

func TestPrinterControlRoundTrip(t *testing.T) {
	f := startFakePrinter(t, false)
	p := runTestPrinter(t, f, 2*time.Second)

	require.Eventually(t, p.IsConnected, 5*time.Second, 20*time.Millisecond)

	results := make(chan models.GCodeResult, 1)
	p.SetBedTemperature(60, func(r models.GCodeResult) { results <- r })

	select {
	case r := <-results:
		require.Equal(t, models.GCodeResultOk, r)
	case <-time.After(5 * time.Second):
		t.Fatal("control command never resolved")
	}
	require.True(t, f.hasReceived("M140 S60"))
}

func TestPrinterBecomesUnreachableAfterConnectFailures(t *testing.T) {
	f := startFakePrinter(t, true)
	p := runTestPrinter(t, f, time.Second)

	require.Eventually(t, p.IsConnected, 5*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !p.IsConnected() }, 15*time.Second, 20*time.Millisecond)
	require.Equal(t, 1, f.connections())
	require.Nil(t, p.GetPrinterState())
}

func TestPrinterRunsOnce(t *testing.T) {
	f := startFakePrinter(t, false)
	p := runTestPrinter(t, f, 2*time.Second)
	require.Eventually(t, p.started.Load, time.Second, time.Millisecond)

	err := p.Run(context.Background())
	require.ErrorIs(t, err, apperrors.ErrAlreadyRunning)
}

func TestPrinterUnreachableHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	p, err := NewPrinter(Config{Host: "127.0.0.1", Port: port, Timeout: time.Second, DataDir: t.TempDir()}, logging.Nop(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	require.False(t, p.IsConnected())
	results := make(chan models.GCodeResult, 1)
	p.Identify(func(r models.GCodeResult) { results <- r })
	require.Equal(t, models.GCodeResultNoConnection, <-results)
}
