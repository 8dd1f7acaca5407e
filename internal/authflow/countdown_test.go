package authflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advance returns a countdown whose clock sits at the given elapsed offset.
func advance(elapsed time.Duration) *Countdown {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := &Countdown{now: func() time.Time { return base }}
	c.Reset()
	c.now = func() time.Time { return base.Add(elapsed) }
	return c
}

func TestResendAllowed_Windows(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    bool
	}{
		{0, true},
		{10 * time.Second, true},
		{29 * time.Second, true},
		{30 * time.Second, false},
		{60 * time.Second, false},
		{150 * time.Second, false},
		{289 * time.Second, false},
		{290 * time.Second, true},
		{300 * time.Second, true},
		{1 * time.Hour, true},
	}

	for _, tt := range tests {
		c := advance(tt.elapsed)
		assert.Equal(t, tt.want, c.ResendAllowed(), "elapsed=%s", tt.elapsed)
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, OTPExpiry, advance(0).Remaining())
	assert.Equal(t, 200*time.Second, advance(100*time.Second).Remaining())
	assert.Equal(t, time.Duration(0), advance(400*time.Second).Remaining())
}

func TestExpired(t *testing.T) {
	assert.False(t, advance(299*time.Second).Expired())
	assert.True(t, advance(300*time.Second).Expired())
}

func TestExpiredImpliesResendAllowed(t *testing.T) {
	for _, elapsed := range []time.Duration{
		300 * time.Second,
		301 * time.Second,
		10 * time.Minute,
	} {
		c := advance(elapsed)
		require.True(t, c.Expired(), "elapsed=%s", elapsed)
		assert.True(t, c.ResendAllowed(), "elapsed=%s", elapsed)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5:00", advance(0).Format())
	assert.Equal(t, "4:59", advance(1*time.Second).Format())
	assert.Equal(t, "0:30", advance(270*time.Second).Format())
	assert.Equal(t, "0:00", advance(301*time.Second).Format())
}

func TestReset_RestartsWindow(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	c := &Countdown{now: func() time.Time { return current }}
	c.Reset()

	current = base.Add(100 * time.Second)
	assert.False(t, c.ResendAllowed())

	c.Reset()
	assert.True(t, c.ResendAllowed())
	assert.Equal(t, OTPExpiry, c.Remaining())
}
