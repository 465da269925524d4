package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderLayers(t *testing.T) {
	t.Parallel()

	l := Layers(0, 3)
	assert.True(t, l.Contains(0))
	assert.True(t, l.Contains(3))
	assert.False(t, l.Contains(1))
	assert.Equal(t, 2, l.Count())
	assert.Equal(t, "[0 3]", l.String())

	assert.Equal(t, Layers(0, 3, 5), l.With(5))
	assert.Equal(t, Layer(3), l.Without(0))
	assert.Equal(t, DefaultRenderLayers(), Layer(0))
	assert.Equal(t, TotalLayers, AllLayers().Count())
	assert.Equal(t, "[]", NoLayers().String())
}

func TestRenderLayers_Intersects(t *testing.T) {
	t.Parallel()
	assert.True(t, Layers(1, 2).Intersects(Layers(2, 9)))
	assert.False(t, Layer(1).Intersects(Layer(2)))
	assert.False(t, NoLayers().Intersects(AllLayers()))
	assert.True(t, AllLayers().Intersects(Layer(TotalLayers-1)))
}

func TestLayer_OutOfRange(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { Layer(TotalLayers) })
	assert.Panics(t, func() { Layer(-1) })
}
