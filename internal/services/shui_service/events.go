package shui_service

import "net"

// event - сообщение для цикла принтера. Горутины транспорта не трогают
// состояние напрямую, а только отправляют события.
type event interface {
	isEvent()
}

// connectedEvent - соединение поколения gen установлено.
type connectedEvent struct {
	gen  uint64
	conn net.Conn
}

type connectFailedEvent struct {
	gen uint64
	err error
}

// readEvent - очередная порция байт из сокета.
type readEvent struct {
	gen  uint64
	data []byte
}

type readFailedEvent struct {
	gen uint64
	err error
}

// timeoutEvent - сработал таймер живости. Устаревший seq означает отмененный таймер.
type timeoutEvent struct {
	seq uint64
}

// redialEvent - истекла пауза перед повторным подключением.
type redialEvent struct {
	gen uint64
}

func (connectedEvent) isEvent()     {}
func (connectFailedEvent) isEvent() {}
func (readEvent) isEvent()          {}
func (readFailedEvent) isEvent()    {}
func (timeoutEvent) isEvent()       {}
func (redialEvent) isEvent()        {}
