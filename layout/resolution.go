package layout

import (
	"log/slog"

	"github.com/sarchlab/heartbeat/logging"
	"github.com/sarchlab/heartbeat/timing"
)

// Screen reports the current size of the display surface in pixels.
type Screen interface {
	Width() float64
	Height() float64
}

// A ResolutionListener is notified when the screen size changes. The deltas
// are the new width and height divided by the previous ones.
type ResolutionListener interface {
	OnResolutionChanged(deltas Vec2)
}

// ResolutionFunc adapts a function into a ResolutionListener.
type ResolutionFunc struct {
	f func(deltas Vec2)
}

// NewResolutionFunc wraps f.
func NewResolutionFunc(f func(deltas Vec2)) *ResolutionFunc {
	return &ResolutionFunc{f: f}
}

// OnResolutionChanged calls the wrapped function.
func (r *ResolutionFunc) OnResolutionChanged(deltas Vec2) {
	r.f(deltas)
}

// A ResolutionMonitor polls a Screen once per tick. Register it on a
// dispatcher with AddHandler.
type ResolutionMonitor struct {
	screen    Screen
	logger    *slog.Logger
	listeners []ResolutionListener

	size    Vec2
	sampled bool
}

// NewResolutionMonitor creates a monitor for screen. A nil logger uses
// slog.Default.
func NewResolutionMonitor(screen Screen, logger *slog.Logger) *ResolutionMonitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &ResolutionMonitor{
		screen: screen,
		logger: logger.With(logging.Component("resolution")),
	}
}

// Size returns the last sampled screen size.
func (m *ResolutionMonitor) Size() Vec2 {
	return m.size
}

// AddListener registers l. Adding a registered listener does nothing.
func (m *ResolutionMonitor) AddListener(l ResolutionListener) {
	if m.indexOf(l) >= 0 {
		return
	}

	m.listeners = append(m.listeners, l)
}

// RemoveListener unregisters l.
func (m *ResolutionMonitor) RemoveListener(l ResolutionListener) {
	i := m.indexOf(l)
	if i < 0 {
		return
	}

	listeners := make([]ResolutionListener, 0, len(m.listeners)-1)
	listeners = append(listeners, m.listeners[:i]...)
	listeners = append(listeners, m.listeners[i+1:]...)
	m.listeners = listeners
}

// NumListeners returns the number of registered listeners.
func (m *ResolutionMonitor) NumListeners() int {
	return len(m.listeners)
}

func (m *ResolutionMonitor) indexOf(l ResolutionListener) int {
	for i, x := range m.listeners {
		if x == l {
			return i
		}
	}

	return -1
}

// Handle samples the screen. The first sample only records the size.
func (m *ResolutionMonitor) Handle(_ timing.FrameCtx) {
	size := Vec2{X: m.screen.Width(), Y: m.screen.Height()}

	if !m.sampled {
		m.size = size
		m.sampled = true

		return
	}

	if size == m.size {
		return
	}

	deltas := Vec2{X: ratio(size.X, m.size.X), Y: ratio(size.Y, m.size.Y)}

	m.logger.Debug("resolution changed",
		"width", size.X, "height", size.Y,
		"delta_x", deltas.X, "delta_y", deltas.Y)

	m.size = size

	for _, l := range m.listeners {
		l.OnResolutionChanged(deltas)
	}
}

func ratio(now, before float64) float64 {
	if before == 0 {
		return 1
	}

	return now / before
}
