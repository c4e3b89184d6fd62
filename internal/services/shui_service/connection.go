package shui_service

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
)

const (
	readBufferSize = 1024
	writeQueueSize = 64
	// Строка без перевода строки длиннее этого порога отбрасывается.
	maxPartialLine = 64 * 1024
)

// transportHandler получает события транспорта в потоке цикла.
type transportHandler interface {
	onConnect()
	onConnectFailed(attempts int64)
	onTimeout(timeouts int64)
	onLine(line string, index int64)
	onTick(lines int64)
}

// Transport держит одно TCP-соединение с принтером, режет поток на строки,
// следит за живостью по таймауту и переподключается.
// Все методы, кроме горутин dial/read/write, вызываются только из цикла принтера.
type Transport struct {
	addr    string
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.Recorder
	handler transportHandler

	ctx    context.Context
	events chan<- event

	gen      uint64
	conn     net.Conn
	writes   chan string
	buffer   []byte
	lines    int64
	timeouts int64
	failures int64

	timer    *time.Timer
	timerSeq uint64

	backoff *backoff.ExponentialBackOff
}

func NewTransport(addr string, timeout time.Duration, handler transportHandler, logger *logging.Logger, recorder *metrics.Recorder) *Transport {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()

	return &Transport{
		addr:    addr,
		timeout: timeout,
		logger:  logger.WithPrefix("CONNECTION"),
		metrics: recorder,
		handler: handler,
		backoff: b,
	}
}

// Lines возвращает количество строк, принятых с момента подключения.
func (t *Transport) Lines() int64 { return t.lines }

// Timeouts возвращает количество таймаутов подряд.
func (t *Transport) Timeouts() int64 { return t.timeouts }

// Connected сообщает, открыт ли сокет.
func (t *Transport) Connected() bool { return t.conn != nil }

func (t *Transport) start(ctx context.Context, events chan<- event) {
	t.ctx = ctx
	t.events = events
	t.connect()
}

func (t *Transport) stop() {
	t.cancelTimer()
	t.closeConn()
	t.gen++
}

// connect закрывает текущее соединение и начинает новую попытку подключения.
func (t *Transport) connect() {
	t.cancelTimer()
	t.closeConn()

	t.gen++
	t.lines = 0
	t.buffer = t.buffer[:0]

	gen := t.gen
	t.armTimer()
	t.logger.Debug("Connecting", "address", t.addr, "generation", gen)
	go t.dial(gen)
}

func (t *Transport) dial(gen uint64) {
	d := net.Dialer{Timeout: t.timeout}
	conn, err := d.DialContext(t.ctx, "tcp", t.addr)
	if err != nil {
		t.send(connectFailedEvent{gen: gen, err: err})
		return
	}
	if !t.send(connectedEvent{gen: gen, conn: conn}) {
		conn.Close()
	}
}

func (t *Transport) readLoop(gen uint64, conn net.Conn) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			if !t.send(readEvent{gen: gen, data: data}) {
				return
			}
		}
		if err != nil {
			t.send(readFailedEvent{gen: gen, err: err})
			return
		}
	}
}

func (t *Transport) writeLoop(conn net.Conn, writes <-chan string) {
	for line := range writes {
		_ = conn.SetWriteDeadline(time.Now().Add(t.timeout))
		if _, err := io.WriteString(conn, line); err != nil {
			t.logger.Error("Write failed", "gcode", strings.TrimSpace(line), "error", err)
		}
	}
}

func (t *Transport) send(ev event) bool {
	select {
	case t.events <- ev:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// SubmitLine отправляет строку принтеру. Ошибки записи только логируются.
func (t *Transport) SubmitLine(text string) {
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if t.writes == nil {
		t.logger.Warn("Dropping write, printer is not connected", "gcode", strings.TrimSpace(text))
		return
	}
	select {
	case t.writes <- text:
	default:
		t.logger.Error("Write queue is full, dropping gcode", "gcode", strings.TrimSpace(text))
	}
}

func (t *Transport) handle(ev event) {
	switch e := ev.(type) {
	case connectedEvent:
		if e.gen != t.gen {
			e.conn.Close()
			return
		}
		t.cancelTimer()
		t.timeouts = 0
		t.failures = 0
		t.backoff.Reset()

		t.conn = e.conn
		t.writes = make(chan string, writeQueueSize)
		go t.writeLoop(e.conn, t.writes)
		go t.readLoop(e.gen, e.conn)

		t.metrics.SetConnected(true)
		t.logger.Info("Connected to printer", "address", t.addr)
		t.handler.onConnect()
		t.armTimer()

	case connectFailedEvent:
		if e.gen != t.gen {
			return
		}
		t.cancelTimer()
		t.failures++
		t.metrics.ConnectFailed()

		delay := t.backoff.NextBackOff()
		t.logger.Warn("Connection failed", "address", t.addr, "attempt", t.failures, "retry_in", delay, "error", e.err)
		t.handler.onConnectFailed(t.failures)

		gen := t.gen
		time.AfterFunc(delay, func() { t.send(redialEvent{gen: gen}) })

	case redialEvent:
		if e.gen != t.gen {
			return
		}
		t.connect()

	case readEvent:
		if e.gen != t.gen {
			return
		}
		t.cancelTimer()
		t.timeouts = 0
		t.consume(e.data)
		t.armTimer()

	case readFailedEvent:
		if e.gen != t.gen {
			return
		}
		t.logger.Error("Read failed, reconnecting", "error", e.err)
		t.connect()

	case timeoutEvent:
		if e.seq != t.timerSeq {
			return
		}
		t.timer = nil
		t.timeouts++
		t.lines = 0
		t.metrics.Timeout()
		t.logger.Warn("Printer timeout", "timeouts", t.timeouts)
		t.handler.onTimeout(t.timeouts)
		t.connect()
	}
}

// consume режет принятые байты на строки и раздает их обработчику.
func (t *Transport) consume(data []byte) {
	t.buffer = append(t.buffer, data...)

	for {
		i := bytes.IndexByte(t.buffer, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(t.buffer[:i], "\r"))
		t.buffer = t.buffer[i+1:]

		t.metrics.LineRead()
		t.handler.onLine(line, t.lines)
		t.lines++
	}

	if len(t.buffer) > maxPartialLine {
		t.logger.Warn("Dropping oversized partial line", "bytes", len(t.buffer))
		t.buffer = t.buffer[:0]
	}

	t.handler.onTick(t.lines)
}

func (t *Transport) armTimer() {
	t.cancelTimer()
	seq := t.timerSeq
	t.timer = time.AfterFunc(t.timeout, func() { t.send(timeoutEvent{seq: seq}) })
}

// cancelTimer делает устаревшими все уже отправленные события таймера.
func (t *Transport) cancelTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.timerSeq++
}

func (t *Transport) closeConn() {
	if t.writes != nil {
		close(t.writes)
		t.writes = nil
	}
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
		t.metrics.SetConnected(false)
	}
}
