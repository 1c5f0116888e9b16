// Package anim is the consolidated animation scheduler: a single per-frame
// tick multiplexing named tweens. The host (a frame callback, a timer, or a
// test) drives Step; registering the first tween marks the scheduler active
// and unregistering the last stops it, so multiple logical animations
// coalesce into one paint per frame.
package anim

import (
	"log/slog"
	"sort"
)

// Tween advances one animation by dt seconds and reports whether it has
// finished.
type Tween func(dt float64) bool

// Scheduler runs on the single interaction goroutine; it needs no locking.
type Scheduler struct {
	tweens   map[string]Tween
	onRender func()
	onActive func(bool) // notified when the scheduler starts or stops
	log      *slog.Logger
}

func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{tweens: make(map[string]Tween), log: log}
}

// SetRenderCallback installs the hook that runs once per tick after all
// tweens, regardless of how many tweens mutated state.
func (s *Scheduler) SetRenderCallback(fn func()) {
	s.onRender = fn
}

// SetActiveCallback lets the host start and stop its frame source.
func (s *Scheduler) SetActiveCallback(fn func(bool)) {
	s.onActive = fn
}

// Register adds or replaces the tween under name. Registering the first
// tween activates the scheduler.
func (s *Scheduler) Register(name string, t Tween) {
	wasIdle := len(s.tweens) == 0
	s.tweens[name] = t
	if wasIdle && s.onActive != nil {
		s.onActive(true)
	}
}

// Unregister removes a tween; removing the last one deactivates the
// scheduler. Unknown names are a no-op.
func (s *Scheduler) Unregister(name string) {
	if _, ok := s.tweens[name]; !ok {
		return
	}
	delete(s.tweens, name)
	if len(s.tweens) == 0 && s.onActive != nil {
		s.onActive(false)
	}
}

func (s *Scheduler) Has(name string) bool {
	_, ok := s.tweens[name]
	return ok
}

func (s *Scheduler) Active() bool {
	return len(s.tweens) > 0
}

// Step advances every tween by dt. Each callback runs inside an isolation
// boundary: a panicking tween is unregistered and logged but the remaining
// tweens and the loop keep running. Finished tweens unregister themselves.
func (s *Scheduler) Step(dt float64) {
	if len(s.tweens) == 0 {
		return
	}
	names := make([]string, 0, len(s.tweens))
	for name := range s.tweens {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic order

	for _, name := range names {
		t, ok := s.tweens[name]
		if !ok {
			continue // removed by an earlier tween this tick
		}
		s.runTween(name, t, dt)
	}
	if s.onRender != nil {
		s.onRender()
	}
}

func (s *Scheduler) runTween(name string, t Tween, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("animation tween panicked", "tween", name, "err", r)
			s.Unregister(name)
		}
	}()
	if done := t(dt); done {
		s.Unregister(name)
	}
}
