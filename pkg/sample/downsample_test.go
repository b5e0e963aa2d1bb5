package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(n int) []Frame {
	now := time.Unix(0, 0)
	out := make([]Frame, n)
	for i := range out {
		out[i] = NewFrame(1, now.Add(time.Duration(i)*time.Second))
		out[i].Celsius[0] = i
		out[i].Valid[0] = true
	}
	return out
}

func TestDownsampleFrames_NoDownsampling(t *testing.T) {
	src := frames(3)

	result := DownsampleFrames(nil, src, 10)
	require.Len(t, result, 3)
	assert.Equal(t, src, result)

	dst := make([]Frame, 0, 10)
	result = DownsampleFrames(dst, src, 10)
	require.Len(t, result, 3)
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsampleFrames_WithDownsampling(t *testing.T) {
	src := frames(100)

	dst := make([]Frame, 0, 20)
	result := DownsampleFrames(dst, src, 10)
	require.Len(t, result, 10)

	assert.Equal(t, src[0], result[0])
	assert.GreaterOrEqual(t, result[len(result)-1].Celsius[0], 80)
	for i := 1; i < len(result); i++ {
		assert.True(t, result[i].Timestamp.After(result[i-1].Timestamp))
	}
	assert.Equal(t, 20, cap(result))
}

func TestDownsampleFrames_DestinationTooSmall(t *testing.T) {
	src := frames(50)
	dst := make([]Frame, 0, 2)

	result := DownsampleFrames(dst, src, 5)
	require.Len(t, result, 5)
	assert.GreaterOrEqual(t, cap(result), 5)
}

func TestDownsample_Empty(t *testing.T) {
	result := Downsample[int](nil, nil, 10)
	assert.Empty(t, result)
}

func TestDownsample_Ints(t *testing.T) {
	src := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, []int{0, 2, 4, 6, 8}, Downsample(nil, src, 5))
}
