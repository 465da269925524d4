package outline

import (
	"github.com/Carmen-Shannon/oxy-outline/common"
	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Resources are the render-world resources shared by both queuers. Everything except
// Specialized and Pipelines is read-only during queueing; those two are internally synchronized.
type Resources struct {
	// Meshes resolves mesh handles to uploaded meshes.
	Meshes mesh.Assets
	// Base is the outline pipeline every variant is specialized from.
	Base pipeline.Specializer[PipelineKey]
	// Specialized memoizes variants by key and vertex layout.
	Specialized *pipeline.Specialized[PipelineKey]
	// Pipelines receives newly specialized variants.
	Pipelines pipeline.Cache
	// MSAA is the sample count of the main pass.
	MSAA uint32
	// Backend is the backend of the render adapter.
	Backend wgpu.BackendType

	StencilDrawFunctions     *DrawFunctions
	OpaqueDrawFunctions      *DrawFunctions
	TransparentDrawFunctions *DrawFunctions
}

// View is one extracted view together with the outline phases it owns this frame.
// A nil phase means the view does not take part in that pass.
type View struct {
	Extracted   camera.ExtractedView
	Stencil     *RenderPhase[StencilOutline]
	Opaque      *RenderPhase[OpaqueOutline]
	Transparent *RenderPhase[TransparentOutline]
}

// NewView creates a view with all three outline phases.
//
// Parameters:
//   - extracted: the extracted camera view
//
// Returns:
//   - *View: the view
func NewView(extracted camera.ExtractedView) *View {
	return &View{
		Extracted:   extracted,
		Stencil:     NewRenderPhase[StencilOutline](),
		Opaque:      NewRenderPhase[OpaqueOutline](),
		Transparent: NewRenderPhase[TransparentOutline](),
	}
}

// clear empties every phase the view owns.
func (v *View) clear() {
	if v.Stencil != nil {
		v.Stencil.Clear()
	}
	if v.Opaque != nil {
		v.Opaque.Clear()
	}
	if v.Transparent != nil {
		v.Transparent.Clear()
	}
}

// eligible applies the filters shared by both queuers and resolves the entity's mesh.
// Mask misses, unpropagated depth modes and meshes that are not uploaded yet are all expected
// this early in an entity's life and simply skip it for the frame.
func eligible(res *Resources, viewMask, entityMask camera.RenderLayers, depth DepthMode, h mesh.Handle) (mesh.GPUMesh, bool) {
	if !viewMask.Intersects(entityMask) {
		return mesh.GPUMesh{}, false
	}
	if depth == DepthModeInvalid {
		return mesh.GPUMesh{}, false
	}
	return res.Meshes.Get(h)
}

// sortDistance is the rangefinder distance of a world-space origin.
func sortDistance(rf camera.Rangefinder3D, origin [3]float32) float32 {
	var m [16]float32
	common.Translation(m[:], origin[0], origin[1], origin[2])
	return rf.Distance(m)
}

// stencilBaseKey is the part of the stencil key that is fixed for the frame.
func stencilBaseKey(res *Resources) PipelineKey {
	return NewPipelineKey().
		WithMSAA(res.MSAA).
		WithPassType(PassTypeStencil).
		WithOpenGLWorkaround(UsesOpenGLWorkaround(res.Backend))
}

// volumeBaseKey is the part of the volume key that is fixed for the frame.
func volumeBaseKey(res *Resources) PipelineKey {
	return NewPipelineKey().
		WithMSAA(res.MSAA).
		WithOpenGLWorkaround(UsesOpenGLWorkaround(res.Backend))
}

// QueueStencil queues a stencil entry for every eligible entity into every view that has a stencil phase.
//
// Parameters:
//   - res: the shared render resources
//   - entities: the entities carrying stencil components
//   - views: the views to queue into
//
// Returns:
//   - error: ErrDrawFunctionNotRegistered or a pipeline.ErrSpecialization error; either means the frame must be aborted
func QueueStencil(res *Resources, entities []StencilEntity, views []*View) error {
	drawStencil, err := res.StencilDrawFunctions.mustID(DrawStencil.Name)
	if err != nil {
		return err
	}
	baseKey := stencilBaseKey(res)

	for _, view := range views {
		if err := queueStencilView(res, baseKey, drawStencil, entities, view); err != nil {
			return err
		}
	}
	return nil
}

func queueStencilView(res *Resources, baseKey PipelineKey, drawStencil DrawFunctionID, entities []StencilEntity, view *View) error {
	if view.Stencil == nil {
		return nil
	}
	rangefinder := view.Extracted.Rangefinder3D()
	viewMask := view.Extracted.Layers()

	for i := range entities {
		e := &entities[i]
		m, ok := eligible(res, viewMask, e.Layers, e.Flags.DepthMode, e.Mesh)
		if !ok {
			continue
		}

		key := baseKey.
			WithPrimitiveTopology(m.Topology).
			WithDepthMode(e.Flags.DepthMode).
			WithOffsetZero(e.Uniform.Offset == 0.0)
		id, err := res.Specialized.Specialize(res.Pipelines, res.Base, key, m.Layout)
		if err != nil {
			return err
		}

		view.Stencil.Add(StencilOutline{
			Entity:       e.Entity,
			Pipeline:     id,
			DrawFunction: drawStencil,
			Distance:     sortDistance(rangefinder, e.Uniform.Origin),
		})
	}
	return nil
}

// QueueVolume queues an opaque or transparent outline entry for every eligible entity into
// every view that has both outline phases. Fragment alpha below 1 selects the transparent phase.
//
// Parameters:
//   - res: the shared render resources
//   - entities: the entities carrying volume components
//   - views: the views to queue into
//
// Returns:
//   - error: ErrDrawFunctionNotRegistered or a pipeline.ErrSpecialization error; either means the frame must be aborted
func QueueVolume(res *Resources, entities []VolumeEntity, views []*View) error {
	draws, err := resolveVolumeDraws(res)
	if err != nil {
		return err
	}
	baseKey := volumeBaseKey(res)

	for _, view := range views {
		if err := queueVolumeView(res, baseKey, draws, entities, view); err != nil {
			return err
		}
	}
	return nil
}

// volumeDraws holds the two draw function ids of the volume queuer, resolved once per frame.
type volumeDraws struct {
	opaque      DrawFunctionID
	transparent DrawFunctionID
}

func resolveVolumeDraws(res *Resources) (volumeDraws, error) {
	opaque, err := res.OpaqueDrawFunctions.mustID(DrawOutline.Name)
	if err != nil {
		return volumeDraws{}, err
	}
	transparent, err := res.TransparentDrawFunctions.mustID(DrawOutline.Name)
	if err != nil {
		return volumeDraws{}, err
	}
	return volumeDraws{opaque: opaque, transparent: transparent}, nil
}

func queueVolumeView(res *Resources, baseKey PipelineKey, draws volumeDraws, entities []VolumeEntity, view *View) error {
	if view.Opaque == nil || view.Transparent == nil {
		return nil
	}
	rangefinder := view.Extracted.Rangefinder3D()
	viewMask := view.Extracted.Layers()

	for i := range entities {
		e := &entities[i]
		m, ok := eligible(res, viewMask, e.Layers, e.Flags.DepthMode, e.Mesh)
		if !ok {
			continue
		}

		pass := PassTypeOpaque
		if e.Fragment.Transparent() {
			pass = PassTypeTransparent
		}
		key := baseKey.
			WithPrimitiveTopology(m.Topology).
			WithPassType(pass).
			WithDepthMode(e.Flags.DepthMode).
			WithOffsetZero(e.Uniform.Offset == 0.0).
			WithHDRFormat(view.Extracted.HDR)
		id, err := res.Specialized.Specialize(res.Pipelines, res.Base, key, m.Layout)
		if err != nil {
			return err
		}

		distance := sortDistance(rangefinder, e.Uniform.Origin)
		switch pass {
		case PassTypeTransparent:
			view.Transparent.Add(TransparentOutline{
				Entity:       e.Entity,
				Pipeline:     id,
				DrawFunction: draws.transparent,
				Distance:     distance,
			})
		default:
			view.Opaque.Add(OpaqueOutline{
				Entity:       e.Entity,
				Pipeline:     id,
				DrawFunction: draws.opaque,
				Distance:     distance,
			})
		}
	}
	return nil
}
