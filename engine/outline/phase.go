package outline

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
)

// PhaseItem is a draw entry that can live in a RenderPhase.
type PhaseItem interface {
	StencilOutline | OpaqueOutline | TransparentOutline

	sortKey() (float32, Entity)
}

// StencilOutline is a draw entry of the stencil phase.
type StencilOutline struct {
	Entity       Entity
	Pipeline     pipeline.CachedPipelineID
	DrawFunction DrawFunctionID
	Distance     float32
}

// front to back
func (s StencilOutline) sortKey() (float32, Entity) { return s.Distance, s.Entity }

// OpaqueOutline is a draw entry of the opaque outline phase.
type OpaqueOutline struct {
	Entity       Entity
	Pipeline     pipeline.CachedPipelineID
	DrawFunction DrawFunctionID
	Distance     float32
}

// front to back
func (o OpaqueOutline) sortKey() (float32, Entity) { return o.Distance, o.Entity }

// TransparentOutline is a draw entry of the transparent outline phase.
type TransparentOutline struct {
	Entity       Entity
	Pipeline     pipeline.CachedPipelineID
	DrawFunction DrawFunctionID
	Distance     float32
}

// back to front
func (t TransparentOutline) sortKey() (float32, Entity) { return -t.Distance, t.Entity }

// RenderPhase is the per-view, per-frame collection of draw entries of one phase.
// Queuers only append; ordering is applied afterwards by Sort.
type RenderPhase[T PhaseItem] struct {
	items []T
}

// NewRenderPhase creates an empty phase.
func NewRenderPhase[T PhaseItem]() *RenderPhase[T] {
	return &RenderPhase[T]{}
}

// Add appends an entry.
func (p *RenderPhase[T]) Add(item T) {
	p.items = append(p.items, item)
}

// Items returns the entries in their current order. The slice is owned by the phase.
func (p *RenderPhase[T]) Items() []T {
	return p.items
}

// Len returns the number of entries.
func (p *RenderPhase[T]) Len() int {
	return len(p.items)
}

// Clear drops every entry and keeps the backing storage for the next frame.
func (p *RenderPhase[T]) Clear() {
	p.items = p.items[:0]
}

// Sort orders the entries for drawing: stencil and opaque entries front to back,
// transparent entries back to front. Ties break on entity so the order is stable across frames.
func (p *RenderPhase[T]) Sort() {
	slices.SortFunc(p.items, func(a, b T) int {
		da, ea := a.sortKey()
		db, eb := b.sortKey()
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		return cmp.Compare(ea, eb)
	})
}
