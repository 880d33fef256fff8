package flash

import (
	"sync"
)

// reply is one scripted answer of a mockTransport read
type reply struct {
	b   byte
	err error
}

func ack() reply { return reply{b: b_ACK} }

// mockTransport simulates the radio bootloader. Reads return the scripted
// replies in order; once they run out the read either times out or, with
// block set, waits until the transport is closed.
type mockTransport struct {
	mu      sync.Mutex
	written [][]byte
	replies []reply
	reads   int
	block   bool
	closes  int

	writeErr error

	closed  chan struct{}
	blocked chan struct{}
}

func newMockTransport(replies ...reply) *mockTransport {
	return &mockTransport{
		replies: replies,
		closed:  make(chan struct{}),
		blocked: make(chan struct{}, 1),
	}
}

// ackAll scripts n ACKs
func ackAll(n int) []reply {
	rs := make([]reply, n)
	for i := range rs {
		rs[i] = ack()
	}
	return rs
}

func (m *mockTransport) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func (m *mockTransport) Write(b []byte) error {
	if m.isClosed() {
		return markErr(ErrWrite, ErrClosed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return markErr(ErrWrite, m.writeErr)
	}
	m.written = append(m.written, append([]byte(nil), b...))
	return nil
}

func (m *mockTransport) ReadByte() (byte, error) {
	if m.isClosed() {
		return 0, markErr(ErrRead, ErrClosed)
	}

	m.mu.Lock()
	m.reads++
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		m.mu.Unlock()
		return r.b, r.err
	}
	block := m.block
	m.mu.Unlock()

	if !block {
		return 0, ErrTimeout
	}

	select {
	case m.blocked <- struct{}{}:
	default:
	}
	<-m.closed
	return 0, markErr(ErrRead, ErrClosed)
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	if m.closes == 1 {
		close(m.closed)
	}
	return nil
}

func (m *mockTransport) packets() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.written...)
}

func (m *mockTransport) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// mockOpener hands out the same transport and counts opens
type mockOpener struct {
	mu    sync.Mutex
	t     *mockTransport
	err   error
	opens int
	names []string
}

func (o *mockOpener) open(name string) (Transport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	o.names = append(o.names, name)
	if o.err != nil {
		return nil, o.err
	}
	return o.t, nil
}

func (o *mockOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// eventLog collects reported events
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) report(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) terminal() []Event {
	var out []Event
	for _, ev := range l.all() {
		if ev.State.Terminal() {
			out = append(out, ev)
		}
	}
	return out
}
