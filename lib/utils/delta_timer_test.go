package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeltaTimer(t *testing.T) {
	var d DeltaTimer
	start := time.Unix(1000, 0)

	assert.Zero(t, d.NextAt(start))
	assert.Zero(t, d.Average())

	assert.Equal(t, 20*time.Millisecond, d.NextAt(start.Add(20*time.Millisecond)))
	assert.Equal(t, 20*time.Millisecond, d.Average())

	assert.Equal(t, 120*time.Millisecond, d.NextAt(start.Add(140*time.Millisecond)))
	assert.Equal(t, 30*time.Millisecond, d.Average())
}
