package present

import (
	"fmt"
	"strings"
)

// Mode selects what the compositor shows.
type Mode int

const (
	// ModeColor shows the preview camera's colour.
	ModeColor Mode = iota
	// ModeSimulatedDepth shows the preview camera's rendered depth.
	ModeSimulatedDepth
	// ModeOutputDepth shows the reconstructed depth.
	ModeOutputDepth
)

var modeNames = [...]string{"color", "simulated-depth", "output-depth"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the names printed by String.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(s, n) {
			return Mode(i), nil
		}
	}
	return ModeColor, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
