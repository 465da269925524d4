package camera

import (
	"fmt"
	"math/bits"
	"strings"
)

// TotalLayers is the number of distinct layers a RenderLayers mask can hold.
const TotalLayers = 32

// RenderLayers is a bitmask of the layers an entity belongs to or a view renders.
// An entity is eligible for a view only if their masks share at least one layer.
type RenderLayers uint32

// DefaultRenderLayers returns the mask holding only layer 0.
func DefaultRenderLayers() RenderLayers {
	return Layer(0)
}

// AllLayers returns the mask holding every layer.
func AllLayers() RenderLayers {
	return RenderLayers(^uint32(0))
}

// NoLayers returns the empty mask. It intersects nothing, including AllLayers.
func NoLayers() RenderLayers {
	return 0
}

// Layer returns a mask holding only layer n.
// Panics if n is not below TotalLayers.
//
// Parameters:
//   - n: the layer index
//
// Returns:
//   - RenderLayers: the single-layer mask
func Layer(n int) RenderLayers {
	if n < 0 || n >= TotalLayers {
		panic(fmt.Sprintf("camera: render layer %d out of range [0, %d)", n, TotalLayers))
	}
	return RenderLayers(1) << n
}

// Layers returns a mask holding every listed layer.
func Layers(ns ...int) RenderLayers {
	var l RenderLayers
	for _, n := range ns {
		l |= Layer(n)
	}
	return l
}

// With returns a copy of the mask with layer n added.
func (l RenderLayers) With(n int) RenderLayers {
	return l | Layer(n)
}

// Without returns a copy of the mask with layer n removed.
func (l RenderLayers) Without(n int) RenderLayers {
	return l &^ Layer(n)
}

// Contains reports whether layer n is in the mask.
func (l RenderLayers) Contains(n int) bool {
	return l&Layer(n) != 0
}

// Intersects reports whether the two masks share at least one layer.
func (l RenderLayers) Intersects(other RenderLayers) bool {
	return l&other != 0
}

// Count returns the number of layers in the mask.
func (l RenderLayers) Count() int {
	return bits.OnesCount32(uint32(l))
}

// String lists the layer indices, e.g. "[0 3]".
func (l RenderLayers) String() string {
	parts := make([]string, 0, l.Count())
	for n := range TotalLayers {
		if l.Contains(n) {
			parts = append(parts, fmt.Sprint(n))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
