// Package lock implements the FIFO-fair queued configuration lock
// called for in SPEC_FULL.md §5 (Fairness note), ported from
// original_source/include/queueMutex.h's QueueMutex. The C++ version
// identifies the owning thread via std::thread::id to catch
// unlock-from-the-wrong-thread; Go has no equivalent goroutine-local
// identity, so FIFOMutex hands out an opaque ticket from Lock and
// requires that same ticket back on Unlock instead.
package lock

import (
	"sync"

	"github.com/rs/zerolog"
)

// Ticket identifies one acquisition of a FIFOMutex.
type Ticket uint64

// FIFOMutex grants the lock to competing callers strictly in request
// order. It is non-reentrant: a second Lock call from the ticket holder
// blocks exactly like any other caller's would.
type FIFOMutex struct {
	mu         sync.Mutex
	locked     bool
	holder     Ticket
	nextTicket Ticket
	queue      []Ticket
	waiters    map[Ticket]chan struct{}
	log        zerolog.Logger
}

func New(log zerolog.Logger) *FIFOMutex {
	return &FIFOMutex{waiters: make(map[Ticket]chan struct{}), log: log}
}

// Lock blocks until the caller is at the head of the queue and the lock
// is free, then returns the ticket that must be passed to Unlock.
func (m *FIFOMutex) Lock() Ticket {
	m.mu.Lock()
	ticket := m.nextTicket
	m.nextTicket++

	if !m.locked && len(m.queue) == 0 {
		m.locked = true
		m.holder = ticket
		m.mu.Unlock()
		return ticket
	}

	ch := make(chan struct{})
	m.waiters[ticket] = ch
	m.queue = append(m.queue, ticket)
	m.mu.Unlock()

	<-ch
	return ticket
}

// Unlock releases the lock and signals the next queued ticket, if any.
// Unlocking when not held, or with a ticket that does not own the lock,
// is a programming error: it is reported through the logger rather than
// panicking, since a logging call from inside Unlock must never itself
// be allowed to fail the caller.
func (m *FIFOMutex) Unlock(ticket Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.locked {
		m.log.Error().Msg("fifomutex: unlock called when the lock is not held")
		return
	}
	if ticket != m.holder {
		m.log.Error().Uint64("ticket", uint64(ticket)).Msg("fifomutex: unlock called by a ticket that does not own the lock")
		return
	}

	m.locked = false
	if len(m.queue) == 0 {
		return
	}

	next := m.queue[0]
	m.queue = m.queue[1:]
	m.locked = true
	m.holder = next

	ch := m.waiters[next]
	delete(m.waiters, next)
	close(ch)
}
