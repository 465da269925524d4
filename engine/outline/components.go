package outline

import (
	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
)

// Entity identifies an entity in the world.
type Entity uint64

// OutlineStencilUniform is the per-entity uniform of the stencil pass.
type OutlineStencilUniform struct {
	// Origin is the world-space origin of the entity, used for sorting and flat depth.
	Origin [3]float32
	// Offset pushes the stencil surface out along the vertex normals.
	Offset float32
}

// OutlineVolumeUniform is the per-entity uniform of the outline volume passes.
type OutlineVolumeUniform struct {
	Origin [3]float32
	// Offset is the outline width along the vertex normals.
	Offset float32
}

// OutlineStencilFlags carries the propagated stencil settings of an entity.
type OutlineStencilFlags struct {
	DepthMode DepthMode
}

// OutlineVolumeFlags carries the propagated volume settings of an entity.
type OutlineVolumeFlags struct {
	DepthMode DepthMode
}

// OutlineFragmentUniform is the per-entity fragment data of the outline volume.
type OutlineFragmentUniform struct {
	// Colour is the linear RGBA outline colour. Alpha below 1 makes the outline transparent.
	Colour [4]float32
}

// Transparent reports whether the outline must be drawn in the transparent phase.
// Exactly 1.0 alpha (or more) is opaque.
func (f OutlineFragmentUniform) Transparent() bool {
	return f.Colour[3] < 1.0
}

// StencilEntity is the read-only row the stencil queuer reads for one entity.
type StencilEntity struct {
	Entity  Entity
	Mesh    mesh.Handle
	Uniform OutlineStencilUniform
	Flags   OutlineStencilFlags
	Layers  camera.RenderLayers
}

// VolumeEntity is the read-only row the volume queuer reads for one entity.
type VolumeEntity struct {
	Entity   Entity
	Mesh     mesh.Handle
	Uniform  OutlineVolumeUniform
	Flags    OutlineVolumeFlags
	Fragment OutlineFragmentUniform
	Layers   camera.RenderLayers
}
