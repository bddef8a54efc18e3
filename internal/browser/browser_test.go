package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 3, opts.PoolSize)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Equal(t, "en-US", opts.Locale)
	assert.NotEmpty(t, opts.ExtraHeaders["Accept"])
}

func TestAcquireBlocksWhenPoolExhausted(t *testing.T) {
	p := &Pool{slots: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page, release, err := p.Acquire(ctx, "test-agent")
	assert.Nil(t, page)
	assert.Nil(t, release)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAvailableCountsFreeSlots(t *testing.T) {
	slots := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		slots <- struct{}{}
	}
	p := &Pool{slots: slots}

	require.Equal(t, 3, p.Available())
	<-p.slots
	assert.Equal(t, 2, p.Available())
}
