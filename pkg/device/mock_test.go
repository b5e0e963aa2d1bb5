package device

import (
	"testing"
	"time"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/itohio/thermwatch/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() acquire.Options {
	return acquire.Options{
		ChannelDelay: time.Millisecond,
		CycleDelay:   10 * time.Millisecond,
	}
}

func TestNewMock(t *testing.T) {
	dev := NewMock(nil, nil, fastOptions())
	assert.NotNil(t, dev)
	assert.Equal(t, 8, dev.reg.Len())
	assert.Equal(t, 8, dev.stream.limits.Channels)
	assert.NotNil(t, dev.Simulator())
	assert.False(t, dev.IsConnected())
}

func TestMock_RevisionA(t *testing.T) {
	dev := NewMock(nil, channel.New(channel.RevisionA), fastOptions())
	assert.Equal(t, 4, dev.stream.limits.Channels)
}

func TestMock_Readings(t *testing.T) {
	cfg := config.Default().Mock
	cfg.NoiseLevel = 0
	cfg.Ambient = 40

	dev := NewMock(&cfg, nil, fastOptions())
	require.NoError(t, dev.Connect())
	defer dev.Close()

	assert.ErrorIs(t, dev.Connect(), ErrAlreadyConnected)

	seen := make(map[int]int)
	timeout := time.After(5 * time.Second)
	for len(seen) < 8 {
		select {
		case r, ok := <-dev.Readings():
			require.True(t, ok)
			seen[r.Channel] = r.Celsius
		case <-timeout:
			t.Fatalf("only saw channels %v", seen)
		}
	}

	for ch, c := range seen {
		assert.InDelta(t, 40, c, 1, "channel %d", ch)
	}
}
