// Package hotkey turns a global key combination into recording start/stop
// triggers. "hold" mode records while the combo is held; "toggle" mode
// flips on each press.
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType indicates whether recording should start or stop.
type EventType int

const (
	// EventStart signals that recording should begin.
	EventStart EventType = iota
	// EventStop signals that recording should end.
	EventStop
)

// Event is emitted on the listener's channel.
type Event struct {
	Type EventType
}

// Listener watches a global key combination and emits start/stop events.
// Events are dropped rather than queued when the consumer falls behind,
// so a wedged consumer cannot back up the OS hook.
type Listener struct {
	keys []string
	mode string
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	active bool // toggle-mode state
}

// NewListener creates a Listener for the given lowercase key names
// (e.g. ["ctrl", "shift", "d"]) and mode ("hold" or "toggle").
func NewListener(keys []string, mode string) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel trigger events arrive on. It is closed when
// the listener shuts down.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start installs the OS hook and blocks until Stop is called. Run it in
// a goroutine.
func (l *Listener) Start() {
	if l.mode == "toggle" {
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.flip() })
	} else {
		hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.send(EventStart) })
		hook.Register(hook.KeyUp, l.keys, func(hook.Event) { l.send(EventStop) })
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// Stop terminates the listener. Safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

func (l *Listener) flip() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		l.send(EventStop)
	} else {
		l.send(EventStart)
	}
	l.active = !l.active
}

func (l *Listener) send(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default:
	}
}
