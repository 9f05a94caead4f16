package frametime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMark(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Duration{0, 16 * time.Millisecond, 50 * time.Millisecond}
	i := 0
	c := newClock(func() time.Time {
		t := base.Add(ticks[i])
		i++
		return t
	})

	f := c.Mark()
	assert.InDelta(t, 0.016, f.Delta, 1e-9)
	assert.InDelta(t, 0.016, f.Total, 1e-9)

	f = c.Mark()
	assert.InDelta(t, 0.034, f.Delta, 1e-9)
	assert.InDelta(t, 0.050, f.Total, 1e-9)
}
