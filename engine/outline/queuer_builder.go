package outline

// QueuerBuilderOption is a functional option applied to a queuer during construction via NewQueuer.
type QueuerBuilderOption func(*queuer)

// WithWorkers sets the maximum number of pooled goroutines used to queue views in parallel.
// Values below 1 are clamped to 1. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - QueuerBuilderOption: a function that sets the worker count
func WithWorkers(n int) QueuerBuilderOption {
	return func(q *queuer) {
		q.workers = max(n, 1)
	}
}
