package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSpecialization is wrapped by every error returned from Specialized.Specialize when the
// specializer rejects a key. It signals a setup bug, not a transient condition.
var ErrSpecialization = errors.New("pipeline specialization failed")

// Specializer builds the pipeline description for one specialization key and vertex layout.
// Implementations must be pure: equal inputs produce equivalent descriptions.
type Specializer[K comparable] interface {
	Specialize(key K, layout VertexLayout) (Pipeline, error)
}

type specializedKey[K comparable] struct {
	key    K
	layout uint64
}

// Specialized memoizes specialization results so each (key, layout) pair is specialized and
// queued once. It is safe for concurrent use; the lock is held across the specializer call so
// a key is never specialized twice.
type Specialized[K comparable] struct {
	mu  sync.Mutex
	ids map[specializedKey[K]]CachedPipelineID
}

// NewSpecialized creates an empty specialization memo.
//
// Returns:
//   - *Specialized[K]: the new memo
func NewSpecialized[K comparable]() *Specialized[K] {
	return &Specialized[K]{
		ids: make(map[specializedKey[K]]CachedPipelineID),
	}
}

// Specialize returns the pipeline id for key and layout, specializing and queueing it in cache on first use.
//
// Parameters:
//   - cache: the cache new pipelines are queued in
//   - specializer: the base pipeline that builds descriptions
//   - key: the specialization key
//   - layout: the mesh vertex layout
//
// Returns:
//   - CachedPipelineID: the id of the specialized pipeline
//   - error: an error wrapping ErrSpecialization if the specializer rejects the key
func (s *Specialized[K]) Specialize(cache Cache, specializer Specializer[K], key K, layout VertexLayout) (CachedPipelineID, error) {
	sk := specializedKey[K]{key: key, layout: layout.Key()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ids[sk]; ok {
		return id, nil
	}

	p, err := specializer.Specialize(key, layout)
	if err != nil {
		return 0, fmt.Errorf("%w for key %v: %w", ErrSpecialization, key, err)
	}

	id := cache.Queue(p)
	s.ids[sk] = id
	return id, nil
}

// Len returns the number of memoized (key, layout) pairs.
//
// Returns:
//   - int: the number of entries
func (s *Specialized[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
