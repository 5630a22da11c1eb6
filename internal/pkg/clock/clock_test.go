package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZone(t *testing.T) {
	loc := Zone(DefaultOffsetHours)
	_, offset := time.Date(2024, 6, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestSystemClock_UsesReferenceZone(t *testing.T) {
	c := New(DefaultOffsetHours)
	_, offset := c.Now().Zone()
	assert.Equal(t, 7*3600, offset)
	assert.Equal(t, c.Location(), c.Now().Location())
}

func TestFixed(t *testing.T) {
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, Zone(DefaultOffsetHours))
	c := NewFixed(start)
	assert.Equal(t, start, c.Now())

	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
