// Package world is the entity registry the render stage queries by component combination.
// Entities carry an optional mesh, a layer mask, and optional stencil and volume outline
// components. Depth modes start out invalid and are filled in by PropagateDepth, which
// resolves each entity's mode from itself or its nearest ancestor.
package world

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
)

// DefaultDepthMode is used by PropagateDepth when neither an entity nor any ancestor sets one.
const DefaultDepthMode = outline.DepthModeFlat

type stencilComponents struct {
	uniform outline.OutlineStencilUniform
	flags   outline.OutlineStencilFlags
}

type volumeComponents struct {
	uniform  outline.OutlineVolumeUniform
	flags    outline.OutlineVolumeFlags
	fragment outline.OutlineFragmentUniform
}

// entityRecord holds the components of one entity.
type entityRecord struct {
	mesh    mesh.Handle
	hasMesh bool
	layers  camera.RenderLayers
	parent  outline.Entity
	// depth is the entity's own depth setting; DepthModeInvalid means inherit
	depth   outline.DepthMode
	stencil *stencilComponents
	volume  *volumeComponents
}

// world is the implementation of the World interface.
type world struct {
	mu       *sync.RWMutex
	registry map[outline.Entity]*entityRecord
	nextID   outline.Entity
}

// World stores entities and their outline components.
// All methods are safe for concurrent use. Setters on unknown entities are no-ops.
type World interface {
	// Spawn creates an entity on layer 0 with no components.
	//
	// Returns:
	//   - outline.Entity: the new entity, never 0
	Spawn() outline.Entity

	// Despawn removes an entity and all of its components. Children keep a dangling parent
	// and inherit nothing from it.
	//
	// Parameters:
	//   - e: the entity to remove
	Despawn(e outline.Entity)

	// Contains reports whether e is alive.
	//
	// Parameters:
	//   - e: the entity
	//
	// Returns:
	//   - bool: true if e has been spawned and not despawned
	Contains(e outline.Entity) bool

	// Len returns the number of live entities.
	//
	// Returns:
	//   - int: the entity count
	Len() int

	// SetMesh attaches a mesh handle to e.
	//
	// Parameters:
	//   - e: the entity
	//   - h: the mesh handle
	SetMesh(e outline.Entity, h mesh.Handle)

	// SetLayers sets the layer mask of e.
	//
	// Parameters:
	//   - e: the entity
	//   - layers: the layer mask
	SetLayers(e outline.Entity, layers camera.RenderLayers)

	// SetParent makes parent the depth-inheritance parent of e. Passing 0 clears it.
	//
	// Parameters:
	//   - e: the entity
	//   - parent: the parent entity or 0
	SetParent(e, parent outline.Entity)

	// SetDepthMode sets e's own depth mode. DepthModeInvalid makes e inherit again.
	//
	// Parameters:
	//   - e: the entity
	//   - mode: the depth mode
	SetDepthMode(e outline.Entity, mode outline.DepthMode)

	// SetStencil adds or replaces e's stencil outline. Its depth mode stays invalid until the next PropagateDepth.
	//
	// Parameters:
	//   - e: the entity
	//   - uniform: the stencil uniform
	SetStencil(e outline.Entity, uniform outline.OutlineStencilUniform)

	// SetVolume adds or replaces e's outline volume. Its depth mode stays invalid until the next PropagateDepth.
	//
	// Parameters:
	//   - e: the entity
	//   - uniform: the volume uniform
	//   - fragment: the fragment uniform holding the outline colour
	SetVolume(e outline.Entity, uniform outline.OutlineVolumeUniform, fragment outline.OutlineFragmentUniform)

	// RemoveStencil removes e's stencil outline.
	//
	// Parameters:
	//   - e: the entity
	RemoveStencil(e outline.Entity)

	// RemoveVolume removes e's outline volume.
	//
	// Parameters:
	//   - e: the entity
	RemoveVolume(e outline.Entity)

	// PropagateDepth resolves the flags of every outlined entity from its own depth mode, else
	// its nearest ancestor's, else DefaultDepthMode. Parent cycles resolve to DefaultDepthMode.
	PropagateDepth()

	// StencilEntities snapshots every entity with a mesh and a stencil outline, ordered by entity.
	//
	// Returns:
	//   - []outline.StencilEntity: the snapshot
	StencilEntities() []outline.StencilEntity

	// VolumeEntities snapshots every entity with a mesh and an outline volume, ordered by entity.
	//
	// Returns:
	//   - []outline.VolumeEntity: the snapshot
	VolumeEntities() []outline.VolumeEntity
}

var _ World = &world{}

// NewWorld creates an empty world.
//
// Returns:
//   - World: the new world
func NewWorld() World {
	return &world{
		mu:       &sync.RWMutex{},
		registry: make(map[outline.Entity]*entityRecord),
		nextID:   1,
	}
}

func (w *world) Spawn() outline.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.nextID
	w.nextID++
	w.registry[e] = &entityRecord{layers: camera.DefaultRenderLayers()}
	return e
}

func (w *world) Despawn(e outline.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.registry, e)
}

func (w *world) Contains(e outline.Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.registry[e]
	return ok
}

func (w *world) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.registry)
}

// update runs fn on e's record under the write lock if e is alive.
func (w *world) update(e outline.Entity, fn func(r *entityRecord)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := w.registry[e]; ok {
		fn(r)
	}
}

func (w *world) SetMesh(e outline.Entity, h mesh.Handle) {
	w.update(e, func(r *entityRecord) {
		r.mesh = h
		r.hasMesh = true
	})
}

func (w *world) SetLayers(e outline.Entity, layers camera.RenderLayers) {
	w.update(e, func(r *entityRecord) {
		r.layers = layers
	})
}

func (w *world) SetParent(e, parent outline.Entity) {
	w.update(e, func(r *entityRecord) {
		r.parent = parent
	})
}

func (w *world) SetDepthMode(e outline.Entity, mode outline.DepthMode) {
	w.update(e, func(r *entityRecord) {
		r.depth = mode
	})
}

func (w *world) SetStencil(e outline.Entity, uniform outline.OutlineStencilUniform) {
	w.update(e, func(r *entityRecord) {
		r.stencil = &stencilComponents{uniform: uniform}
	})
}

func (w *world) SetVolume(e outline.Entity, uniform outline.OutlineVolumeUniform, fragment outline.OutlineFragmentUniform) {
	w.update(e, func(r *entityRecord) {
		r.volume = &volumeComponents{uniform: uniform, fragment: fragment}
	})
}

func (w *world) RemoveStencil(e outline.Entity) {
	w.update(e, func(r *entityRecord) {
		r.stencil = nil
	})
}

func (w *world) RemoveVolume(e outline.Entity) {
	w.update(e, func(r *entityRecord) {
		r.volume = nil
	})
}

func (w *world) PropagateDepth() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, r := range w.registry {
		if r.stencil == nil && r.volume == nil {
			continue
		}
		mode := w.resolveDepth(r)
		if r.stencil != nil {
			r.stencil.flags.DepthMode = mode
		}
		if r.volume != nil {
			r.volume.flags.DepthMode = mode
		}
	}
}

// resolveDepth walks up the parent chain. Caller must hold the lock.
func (w *world) resolveDepth(r *entityRecord) outline.DepthMode {
	seen := make(map[*entityRecord]struct{})
	for r != nil {
		if _, loop := seen[r]; loop {
			return DefaultDepthMode
		}
		seen[r] = struct{}{}
		if r.depth != outline.DepthModeInvalid {
			return r.depth
		}
		if r.parent == 0 {
			break
		}
		r = w.registry[r.parent]
	}
	return DefaultDepthMode
}

// sortedEntities returns the live entities in ascending order. Caller must hold the lock.
func (w *world) sortedEntities() []outline.Entity {
	ids := make([]outline.Entity, 0, len(w.registry))
	for e := range w.registry {
		ids = append(ids, e)
	}
	slices.Sort(ids)
	return ids
}

func (w *world) StencilEntities() []outline.StencilEntity {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []outline.StencilEntity
	for _, e := range w.sortedEntities() {
		r := w.registry[e]
		if !r.hasMesh || r.stencil == nil {
			continue
		}
		out = append(out, outline.StencilEntity{
			Entity:  e,
			Mesh:    r.mesh,
			Uniform: r.stencil.uniform,
			Flags:   r.stencil.flags,
			Layers:  r.layers,
		})
	}
	return out
}

func (w *world) VolumeEntities() []outline.VolumeEntity {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []outline.VolumeEntity
	for _, e := range w.sortedEntities() {
		r := w.registry[e]
		if !r.hasMesh || r.volume == nil {
			continue
		}
		out = append(out, outline.VolumeEntity{
			Entity:   e,
			Mesh:     r.mesh,
			Uniform:  r.volume.uniform,
			Flags:    r.volume.flags,
			Fragment: r.volume.fragment,
			Layers:   r.layers,
		})
	}
	return out
}
