package sysprop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineForever(t *testing.T) {
	d := newDeadline(Forever)
	assert.Equal(t, Forever, d.remaining())
	assert.False(t, d.expired())
}

func TestDeadlineRemaining(t *testing.T) {
	d := newDeadline(time.Hour)
	left := d.remaining()
	assert.LessOrEqual(t, left, time.Hour)
	assert.Greater(t, left, 59*time.Minute)
	assert.False(t, d.expired())
}

func TestDeadlineClampsToZero(t *testing.T) {
	d := newDeadline(10 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, time.Duration(0), d.remaining())
	assert.True(t, d.expired())

	assert.True(t, newDeadline(0).expired())
}
