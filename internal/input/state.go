// Package input tracks keyboard and mouse state between frames and turns it
// into renderer actions and camera motion.
package input

// Key identifies a keyboard key independently of the window system.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyShift
	KeyControl
	KeyTab
	KeyEscape
	KeyF1
	KeyF2
	KeyF3
	KeyF12
)

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

type set[T comparable] map[T]struct{}

func (s set[T]) has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s set[T]) clear() {
	for k := range s {
		delete(s, k)
	}
}

// Keyboard separates keys pressed or released during the current frame from
// keys held down.
type Keyboard struct {
	pressed  set[Key]
	down     set[Key]
	released set[Key]
}

func (k *Keyboard) Press(key Key) {
	k.pressed[key] = struct{}{}
	k.down[key] = struct{}{}
}

func (k *Keyboard) Release(key Key) {
	k.released[key] = struct{}{}
	delete(k.down, key)
}

// Pressed reports whether key went down during this frame.
func (k *Keyboard) Pressed(key Key) bool  { return k.pressed.has(key) }
func (k *Keyboard) Down(key Key) bool     { return k.down.has(key) }
func (k *Keyboard) Released(key Key) bool { return k.released.has(key) }

// Mouse accumulates relative motion into a position. Deltas and the wheel
// cover the current frame only.
type Mouse struct {
	X, Y           float64
	DeltaX, DeltaY float64
	Wheel          float64

	pressed  set[Button]
	down     set[Button]
	released set[Button]
}

func (m *Mouse) Move(dx, dy float64) {
	m.X += dx
	m.Y += dy
	m.DeltaX, m.DeltaY = dx, dy
}

func (m *Mouse) Scroll(d float64) { m.Wheel += d }

func (m *Mouse) Press(b Button) {
	m.pressed[b] = struct{}{}
	m.down[b] = struct{}{}
}

func (m *Mouse) Release(b Button) {
	m.released[b] = struct{}{}
	delete(m.down, b)
}

func (m *Mouse) Pressed(b Button) bool  { return m.pressed.has(b) }
func (m *Mouse) Down(b Button) bool     { return m.down.has(b) }
func (m *Mouse) Released(b Button) bool { return m.released.has(b) }

// State is everything the window system reported since the last flush.
type State struct {
	Keyboard Keyboard
	Mouse    Mouse
}

func NewState() *State {
	return &State{
		Keyboard: Keyboard{pressed: set[Key]{}, down: set[Key]{}, released: set[Key]{}},
		Mouse:    Mouse{pressed: set[Button]{}, down: set[Button]{}, released: set[Button]{}},
	}
}

// FlushOldInputs ends a frame: per-frame events are cleared, held keys and
// the mouse position are kept.
func (s *State) FlushOldInputs() {
	s.Keyboard.pressed.clear()
	s.Keyboard.released.clear()
	s.Mouse.pressed.clear()
	s.Mouse.released.clear()
	s.Mouse.DeltaX, s.Mouse.DeltaY = 0, 0
	s.Mouse.Wheel = 0
}

// FlushAll forgets every key and button, as when the window loses focus.
func (s *State) FlushAll() {
	s.FlushOldInputs()
	s.Keyboard.down.clear()
	s.Mouse.down.clear()
}
