// Package proxy holds the sinks the engine hands actions to.
package proxy

import (
	"sync"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
)

// Proxy receives every action the simulation produces, in production order.
type Proxy interface {
	SendAction(a actions.Action)
}

// Func adapts a plain function to Proxy.
type Func func(a actions.Action)

func (f Func) SendAction(a actions.Action) { f(a) }

type tee []Proxy

// Tee fans every action out to each non-nil proxy in turn.
func Tee(proxies ...Proxy) Proxy {
	out := make(tee, 0, len(proxies))
	for _, p := range proxies {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (t tee) SendAction(a actions.Action) {
	for _, p := range t {
		p.SendAction(a)
	}
}

// Recorder keeps every action it receives. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	actions []actions.Action
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) SendAction(a actions.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []actions.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]actions.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Kinds lists the kinds of the recorded actions.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Kind()
	}
	return out
}

// Reset forgets everything recorded so far and returns it.
func (r *Recorder) Reset() []actions.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.actions
	r.actions = nil
	return out
}
