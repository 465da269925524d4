package outline

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDrawFunctionNotRegistered is returned when a queuer cannot find its draw function.
// It means the renderer was set up without calling RegisterDrawFunctions.
var ErrDrawFunctionNotRegistered = errors.New("draw function not registered")

// DrawFunctionID identifies a draw function within one DrawFunctions registry.
type DrawFunctionID uint32

// RenderCommand is one step the draw dispatcher performs for a draw entry.
type RenderCommand string

const (
	SetItemPipeline            RenderCommand = "set_item_pipeline"
	SetMeshViewBindGroup       RenderCommand = "set_mesh_view_bind_group"
	SetMeshBindGroup           RenderCommand = "set_mesh_bind_group"
	SetOutlineViewBindGroup    RenderCommand = "set_outline_view_bind_group"
	SetOutlineStencilBindGroup RenderCommand = "set_outline_stencil_bind_group"
	SetOutlineVolumeBindGroup  RenderCommand = "set_outline_volume_bind_group"
	DrawMesh                   RenderCommand = "draw_mesh"
)

// DrawFunction is a named sequence of render commands. Bind group commands appear in bind group index order.
type DrawFunction struct {
	Name     string
	Commands []RenderCommand
}

// DrawStencil draws a stencil phase entry.
var DrawStencil = DrawFunction{
	Name: "draw_outline_stencil",
	Commands: []RenderCommand{
		SetItemPipeline,
		SetMeshViewBindGroup,
		SetMeshBindGroup,
		SetOutlineViewBindGroup,
		SetOutlineStencilBindGroup,
		DrawMesh,
	},
}

// DrawOutline draws an opaque or transparent outline volume entry.
var DrawOutline = DrawFunction{
	Name: "draw_outline",
	Commands: []RenderCommand{
		SetItemPipeline,
		SetMeshViewBindGroup,
		SetMeshBindGroup,
		SetOutlineViewBindGroup,
		SetOutlineVolumeBindGroup,
		DrawMesh,
	},
}

// DrawFunctions is the registry of draw functions for one phase.
// It is safe for concurrent use.
type DrawFunctions struct {
	mu        sync.RWMutex
	functions []DrawFunction
	ids       map[string]DrawFunctionID
}

// NewDrawFunctions creates an empty registry.
//
// Returns:
//   - *DrawFunctions: the new registry
func NewDrawFunctions() *DrawFunctions {
	return &DrawFunctions{
		ids: make(map[string]DrawFunctionID),
	}
}

// Add registers fn and returns its id. Adding a name twice returns the existing id and keeps the first definition.
//
// Parameters:
//   - fn: the draw function
//
// Returns:
//   - DrawFunctionID: the id of the draw function
func (d *DrawFunctions) Add(fn DrawFunction) DrawFunctionID {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.ids[fn.Name]; ok {
		return id
	}
	id := DrawFunctionID(len(d.functions))
	d.functions = append(d.functions, fn)
	d.ids[fn.Name] = id
	return id
}

// ID looks up a draw function by name.
//
// Parameters:
//   - name: the draw function name
//
// Returns:
//   - DrawFunctionID: the id, or 0 if missing
//   - bool: true if the name is registered
func (d *DrawFunctions) ID(name string) (DrawFunctionID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.ids[name]
	return id, ok
}

// Get returns the draw function registered under id.
//
// Parameters:
//   - id: the draw function id
//
// Returns:
//   - DrawFunction: the draw function, or the zero value if missing
//   - bool: true if id is registered
func (d *DrawFunctions) Get(id DrawFunctionID) (DrawFunction, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.functions) {
		return DrawFunction{}, false
	}
	return d.functions[id], true
}

// mustID resolves name or returns an error wrapping ErrDrawFunctionNotRegistered.
func (d *DrawFunctions) mustID(name string) (DrawFunctionID, error) {
	if d == nil {
		return 0, fmt.Errorf("%w: %q (no registry)", ErrDrawFunctionNotRegistered, name)
	}
	id, ok := d.ID(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrDrawFunctionNotRegistered, name)
	}
	return id, nil
}

// RegisterDrawFunctions installs DrawStencil in the stencil registry and DrawOutline in the
// opaque and transparent registries.
//
// Parameters:
//   - stencil: the stencil phase registry
//   - opaque: the opaque outline phase registry
//   - transparent: the transparent outline phase registry
func RegisterDrawFunctions(stencil, opaque, transparent *DrawFunctions) {
	stencil.Add(DrawStencil)
	opaque.Add(DrawOutline)
	transparent.Add(DrawOutline)
}
