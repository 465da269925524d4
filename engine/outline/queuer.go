package outline

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// ErrQueuerClosed is returned by Queue once the queuer has been closed.
var ErrQueuerClosed = errors.New("outline: queuer closed")

// Frame is the immutable snapshot the queuers read for one frame plus the views they write.
type Frame struct {
	Stencil []StencilEntity
	Volume  []VolumeEntity
	Views   []*View
}

// FrameStats counts what one Queue call produced.
type FrameStats struct {
	Views       int
	Stencil     int
	Opaque      int
	Transparent int
	// Pipelines is the number of distinct specialized variants known after the frame.
	Pipelines int
}

// queuer is the implementation of the Queuer interface.
type queuer struct {
	res *Resources

	workers int
	pool    worker.DynamicWorkerPool

	mu     *sync.RWMutex // held for reading by Queue, for writing by Close
	closed bool
}

// Queuer runs the stencil and volume queuers for every view of a frame.
// Each (view, queuer) pair is an independent task on a persistent worker pool: tasks only read
// the frame's entity snapshot and only write the phases of their own view, so they need no locks.
type Queuer interface {
	// Queue fills the outline phases of every view in frame. The phases are cleared first.
	// If any task fails the frame is aborted: every phase is cleared again and the first error is returned.
	//
	// Parameters:
	//   - frame: the entity snapshot and the views to fill
	//
	// Returns:
	//   - FrameStats: counts of queued entries, zero when the frame is aborted
	//   - error: the first queueing error, or an error describing a recovered panic
	Queue(frame Frame) (FrameStats, error)

	// Resources returns the render resources the queuer was built with.
	//
	// Returns:
	//   - *Resources: the shared render resources
	Resources() *Resources

	// Close stops the worker pool. Queue returns ErrQueuerClosed afterwards.
	// Close waits for an in-flight Queue call to finish and is safe to call more than once.
	Close()
}

var _ Queuer = &queuer{}

// NewQueuer creates a Queuer over res. res must have every field set.
// NewQueuer panics if res is nil.
//
// Parameters:
//   - res: the shared render resources
//   - options: functional options to configure the queuer
//
// Returns:
//   - Queuer: the new queuer
func NewQueuer(res *Resources, options ...QueuerBuilderOption) Queuer {
	if res == nil {
		panic("outline: NewQueuer requires non-nil Resources")
	}

	q := &queuer{
		res:     res,
		workers: max(runtime.NumCPU()-1, 1),
		mu:      &sync.RWMutex{},
	}
	for _, option := range options {
		option(q)
	}

	// Queue size covers two tasks per view for typical view counts.
	q.pool = worker.NewDynamicWorkerPool(q.workers, 256, 1*time.Second)
	return q
}

func (q *queuer) Resources() *Resources {
	return q.res
}

func (q *queuer) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.pool.Stop()
}

func (q *queuer) Queue(frame Frame) (FrameStats, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return FrameStats{}, ErrQueuerClosed
	}

	for _, v := range frame.Views {
		v.clear()
	}

	// Draw functions and base keys are per frame, not per view.
	drawStencil, err := q.res.StencilDrawFunctions.mustID(DrawStencil.Name)
	if err != nil {
		return FrameStats{}, err
	}
	draws, err := resolveVolumeDraws(q.res)
	if err != nil {
		return FrameStats{}, err
	}
	stencilKey := stencilBaseKey(q.res)
	volumeKey := volumeBaseKey(q.res)

	errs := make([]error, 2*len(frame.Views))
	var wg sync.WaitGroup
	submit := func(id int, run func() error) {
		wg.Add(1)
		q.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (result any, err error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[id] = fmt.Errorf("outline: queue task %d panicked: %v", id, r)
					}
				}()
				errs[id] = run()
				return nil, nil
			},
		})
	}

	for i, view := range frame.Views {
		v := view
		submit(2*i, func() error {
			return queueStencilView(q.res, stencilKey, drawStencil, frame.Stencil, v)
		})
		submit(2*i+1, func() error {
			return queueVolumeView(q.res, volumeKey, draws, frame.Volume, v)
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			for _, v := range frame.Views {
				v.clear()
			}
			return FrameStats{}, err
		}
	}

	stats := FrameStats{
		Views:     len(frame.Views),
		Pipelines: q.res.Specialized.Len(),
	}
	for _, v := range frame.Views {
		if v.Stencil != nil {
			stats.Stencil += v.Stencil.Len()
		}
		if v.Opaque != nil {
			stats.Opaque += v.Opaque.Len()
		}
		if v.Transparent != nil {
			stats.Transparent += v.Transparent.Len()
		}
	}
	return stats, nil
}
