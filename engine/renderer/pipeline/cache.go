package pipeline

import (
	"fmt"
	"sync"
)

// CachedPipelineID identifies a pipeline queued in a Cache. It is what draw items carry
// instead of the pipeline itself.
type CachedPipelineID uint32

// cache is the implementation of the Cache interface.
type cache struct {
	mu *sync.Mutex

	pipelines []Pipeline
	// pending holds ids queued but not yet handed to the GPU backend, in queue order
	pending []CachedPipelineID
}

// Cache stores every specialized pipeline description for the lifetime of the renderer.
// Queueing is cheap and synchronous; creation of the GPU objects happens later when the
// backend drains the pending list.
type Cache interface {
	// Queue stores a pipeline description and returns its id. Ids are dense and never reused.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - CachedPipelineID: the id of the stored pipeline
	Queue(p Pipeline) CachedPipelineID

	// Get returns the pipeline stored under id.
	//
	// Parameters:
	//   - id: the pipeline id
	//
	// Returns:
	//   - Pipeline: the pipeline, or nil if id was never queued
	//   - bool: true if id was found
	Get(id CachedPipelineID) (Pipeline, bool)

	// Len returns the number of pipelines ever queued.
	//
	// Returns:
	//   - int: the number of pipelines
	Len() int

	// Pending returns the number of pipelines waiting for GPU creation.
	//
	// Returns:
	//   - int: the number of pending pipelines
	Pending() int

	// Drain hands every pending pipeline to register in queue order. If register fails, the
	// failing pipeline and everything after it stay pending.
	//
	// Parameters:
	//   - register: creates the GPU object for one pipeline
	//
	// Returns:
	//   - error: the first registration error, wrapped with the pipeline label
	Drain(register func(Pipeline) error) error
}

var _ Cache = &cache{}

// NewCache creates an empty pipeline cache.
//
// Returns:
//   - Cache: the new cache
func NewCache() Cache {
	return &cache{
		mu: &sync.Mutex{},
	}
}

func (c *cache) Queue(p Pipeline) CachedPipelineID {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := CachedPipelineID(len(c.pipelines))
	c.pipelines = append(c.pipelines, p)
	c.pending = append(c.pending, id)
	return id
}

func (c *cache) Get(id CachedPipelineID) (Pipeline, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if int(id) >= len(c.pipelines) {
		return nil, false
	}
	return c.pipelines[id], true
}

func (c *cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pipelines)
}

func (c *cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *cache) Drain(register func(Pipeline) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, id := range c.pending {
		p := c.pipelines[id]
		if err := register(p); err != nil {
			c.pending = c.pending[i:]
			return fmt.Errorf("failed to create pipeline %q: %w", p.PipelineKey(), err)
		}
	}
	c.pending = c.pending[:0]
	return nil
}
