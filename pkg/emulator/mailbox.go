package emulator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/core"
)

var mailboxGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "wton_mailbox_messages",
		Help: "Messages waiting in account mailboxes",
	},
)

// envelope is a message on its way to an account together with the trace it belongs to.
type envelope struct {
	msg    core.Message
	parent *core.Trace
	run    *run
}

// mailbox is an unbounded FIFO queue with a single consumer.
type mailbox struct {
	mu     sync.Mutex
	queue  []envelope
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// push appends env to the queue. capacity limits the queue length when positive.
func (m *mailbox) push(env envelope, capacity int) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if capacity > 0 && len(m.queue) >= capacity {
		m.mu.Unlock()
		return ErrMailboxFull
	}
	m.queue = append(m.queue, env)
	m.mu.Unlock()
	mailboxGauge.Inc()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// pop blocks until a message is available. It returns false once the mailbox is closed.
func (m *mailbox) pop() (envelope, bool) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			env := m.queue[0]
			m.queue[0] = envelope{}
			m.queue = m.queue[1:]
			m.mu.Unlock()
			mailboxGauge.Dec()
			return env, true
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return envelope{}, false
		}
		<-m.notify
	}
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// close drops pending messages and wakes the consumer up.
func (m *mailbox) close() []envelope {
	m.mu.Lock()
	pending := m.queue
	m.queue = nil
	m.closed = true
	m.mu.Unlock()
	mailboxGauge.Sub(float64(len(pending)))
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return pending
}

// actor owns the state of one account and applies its messages one at a time.
type actor struct {
	address ton.AccountID
	mailbox *mailbox

	mu    sync.RWMutex
	state core.Account
	err   error
}

func (a *actor) snapshot() core.Account {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}
