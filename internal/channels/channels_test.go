package channels

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandOrdersRGB(t *testing.T) {
	got := Expand([]string{"left", "right"})
	require.Len(t, got, 6)
	assert.Equal(t, Channel{Light: "left", Color: Red}, got[0])
	assert.Equal(t, Channel{Light: "left", Color: Blue}, got[2])
	assert.Equal(t, Channel{Light: "right", Color: Green}, got[4])
	assert.Equal(t, "right.G", got[4].String())
}

func TestStoreFillChannels(t *testing.T) {
	s := NewStore()
	s.Set("left", [3]float64{1, 0, 0.5})

	chans := Expand([]string{"left", "missing"})
	dst := make([]float64, len(chans))
	for i := range dst {
		dst[i] = 9
	}
	s.FillChannels(dst, chans, time.Now())

	assert.Equal(t, []float64{1, 0, 0.5, 0, 0, 0}, dst)
}

func TestStoreClampsValues(t *testing.T) {
	s := NewStore()
	s.Set("x", [3]float64{-1, 2, math.NaN()})

	v, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, [3]float64{0, 1, 0}, v)
	assert.Equal(t, []string{"x"}, s.Lights())
}

func TestStoreShortDestination(t *testing.T) {
	s := NewStore()
	s.Set("a", [3]float64{1, 1, 1})
	dst := make([]float64, 2)
	s.FillChannels(dst, Expand([]string{"a"}), time.Now())
	assert.Equal(t, []float64{1, 1}, dst)
}
