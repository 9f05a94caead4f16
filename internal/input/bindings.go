package input

// Action is a discrete renderer command triggered by a key press.
type Action int

const (
	ActionNone Action = iota
	ActionColor
	ActionSimulatedDepth
	ActionOutputDepth
	ActionCyclePreview
	ActionScreenshot
	ActionQuit
)

var actionNames = map[Action]string{
	ActionNone:           "none",
	ActionColor:          "color",
	ActionSimulatedDepth: "simulated-depth",
	ActionOutputDepth:    "output-depth",
	ActionCyclePreview:   "cycle-preview",
	ActionScreenshot:     "screenshot",
	ActionQuit:           "quit",
}

func (a Action) String() string { return actionNames[a] }

// Bindings maps keys to actions.
type Bindings map[Key]Action

// DefaultBindings: F1-F3 select the mode, Tab cycles the preview camera,
// F12 captures and Escape quits.
func DefaultBindings() Bindings {
	return Bindings{
		KeyF1:     ActionColor,
		KeyF2:     ActionSimulatedDepth,
		KeyF3:     ActionOutputDepth,
		KeyTab:    ActionCyclePreview,
		KeyF12:    ActionScreenshot,
		KeyEscape: ActionQuit,
	}
}

// Actions returns the actions whose keys were pressed this frame, in Action
// order.
func (b Bindings) Actions(s *State) []Action {
	var fired [ActionQuit + 1]bool
	for key, a := range b {
		if s.Keyboard.Pressed(key) {
			fired[a] = true
		}
	}
	var out []Action
	for a := ActionColor; a <= ActionQuit; a++ {
		if fired[a] {
			out = append(out, a)
		}
	}
	return out
}
