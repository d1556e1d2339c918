package rate_limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.IsAllowed("1.2.3.4"))
	}
	assert.False(t, rl.IsAllowed("1.2.3.4"))
}

func TestRateLimiterTracksKeysIndependently(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.IsAllowed("1.2.3.4"))
	assert.False(t, rl.IsAllowed("1.2.3.4"))
	assert.True(t, rl.IsAllowed("5.6.7.8"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)

	assert.True(t, rl.IsAllowed("1.2.3.4"))
	assert.False(t, rl.IsAllowed("1.2.3.4"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.IsAllowed("1.2.3.4"))
}
