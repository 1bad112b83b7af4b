package ws

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestJoinRateLimiter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewJoinRateLimiter(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("sid-a"), "attempt %d", i)
	}
	assert.False(t, rl.Allow("sid-a"))

	// Other sessions are unaffected.
	assert.True(t, rl.Allow("sid-b"))
}

func TestJoinRateLimiter_WindowSlides(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewJoinRateLimiter(2, time.Minute, clock)

	assert.True(t, rl.Allow("sid-a"))
	clock.Advance(30 * time.Second)
	assert.True(t, rl.Allow("sid-a"))
	assert.False(t, rl.Allow("sid-a"))

	// The first attempt falls out of the window; one slot frees up.
	clock.Advance(31 * time.Second)
	assert.True(t, rl.Allow("sid-a"))
	assert.False(t, rl.Allow("sid-a"))
}
