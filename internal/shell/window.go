// Package shell tracks the launcher window a front-end renders.
package shell

import (
	"sync"
	"time"
)

// State is a snapshot of the launcher window.
type State struct {
	Visible   bool      `json:"visible"`
	Centered  bool      `json:"centered"`
	Focused   bool      `json:"focused"`
	Query     string    `json:"query"`
	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Window is the launcher window's state machine. Closing hides the window;
// only Quit ends it.
type Window struct {
	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int
	quit   chan struct{}
	closed bool
}

func NewWindow() *Window {
	return &Window{
		subs: make(map[int]chan State),
		quit: make(chan struct{}),
	}
}

// State returns the current snapshot.
func (w *Window) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Show makes the window visible, centered and focused.
func (w *Window) Show() State {
	return w.update(func(s *State) {
		s.Visible = true
		s.Centered = true
		s.Focused = true
	})
}

// Hide hides the window and drops focus.
func (w *Window) Hide() State {
	return w.update(func(s *State) {
		s.Visible = false
		s.Focused = false
	})
}

// Toggle shows a hidden window and hides a visible one.
func (w *Window) Toggle() State {
	if w.State().Visible {
		return w.Hide()
	}
	return w.Show()
}

// CloseRequested handles the window's close button by hiding it.
func (w *Window) CloseRequested() State {
	return w.Hide()
}

// SetQuery records the front-end's current input.
func (w *Window) SetQuery(q string) State {
	return w.update(func(s *State) { s.Query = q })
}

// Quit ends every subscription and signals Done.
func (w *Window) Quit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.quit)
	for id, ch := range w.subs {
		close(ch)
		delete(w.subs, id)
	}
}

// Done is closed by Quit.
func (w *Window) Done() <-chan struct{} {
	return w.quit
}

// Subscribe streams states, starting with the current one. A subscriber
// that falls behind only sees the newest state. The returned func
// unsubscribes.
func (w *Window) Subscribe() (<-chan State, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := make(chan State, 1)
	if w.closed {
		close(ch)
		return ch, func() {}
	}

	id := w.nextID
	w.nextID++
	w.subs[id] = ch
	ch <- w.state

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if c, ok := w.subs[id]; ok {
				close(c)
				delete(w.subs, id)
			}
		})
	}
	return ch, cancel
}

func (w *Window) update(fn func(*State)) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	fn(&w.state)
	w.state.Seq++
	w.state.UpdatedAt = time.Now()

	for _, ch := range w.subs {
		publish(ch, w.state)
	}
	return w.state
}

// publish replaces a pending stale state with s.
func publish(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
