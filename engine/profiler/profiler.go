package profiler

import (
	"runtime"
	"slices"
	"time"

	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/stat"
)

// Profiler tracks frame rate, outline queue timings and memory statistics.
// Outputs stats to the logger at a configurable interval. It is not safe for concurrent use;
// the frame driver calls it from the render loop only.
type Profiler struct {
	logger         *log.Logger
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	// queue timings in milliseconds since the last report
	queueMs  []float64
	aborted  int
	last     outline.FrameStats
	reported Report
}

// Report is the summary logged at the end of each interval.
type Report struct {
	FPS         float64
	QueueMeanMs float64
	QueueStdMs  float64
	QueueP95Ms  float64
	Aborted     int
	// Last holds the counts of the most recent successful frame.
	Last    outline.FrameStats
	HeapMB  float64
	SysMB   float64
	GCCount uint32
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second and the logger to log.Default().
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         log.Default(),
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Record adds one queue run to the current interval.
//
// Parameters:
//   - stats: the counts returned by the queuer
//   - queueTime: how long queueing took
//   - err: the queue error, if the frame was aborted
func (p *Profiler) Record(stats outline.FrameStats, queueTime time.Duration, err error) {
	if err != nil {
		p.aborted++
		return
	}
	p.queueMs = append(p.queueMs, float64(queueTime.Microseconds())/1000)
	p.last = stats
}

// Tick should be called once per frame to track frame timing.
// Logs the interval report when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	r := Report{
		FPS:     float64(p.frameCount) / elapsed.Seconds(),
		Aborted: p.aborted,
		Last:    p.last,
	}
	if len(p.queueMs) > 0 {
		r.QueueMeanMs, r.QueueStdMs = stat.MeanStdDev(p.queueMs, nil)
		slices.Sort(p.queueMs)
		r.QueueP95Ms = stat.Quantile(0.95, stat.Empirical, p.queueMs, nil)
	}

	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	r.GCCount = p.memStats.NumGC
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	p.logger.Info("profiler",
		"fps", round2(r.FPS),
		"queue_mean_ms", round2(r.QueueMeanMs),
		"queue_std_ms", round2(r.QueueStdMs),
		"queue_p95_ms", round2(r.QueueP95Ms),
		"aborted", r.Aborted,
		"views", r.Last.Views,
		"stencil", r.Last.Stencil,
		"opaque", r.Last.Opaque,
		"transparent", r.Last.Transparent,
		"pipelines", r.Last.Pipelines,
		"heap_mb", round2(r.HeapMB),
		"alloc_mb_s", round2(allocRateMB),
		"gc", r.GCCount,
		"sys_mb", round2(r.SysMB),
	)

	p.reported = r
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.queueMs = p.queueMs[:0]
	p.aborted = 0
	return true
}

// LastReport returns the most recently logged report.
//
// Returns:
//   - Report: the last report, or the zero value before the first one
func (p *Profiler) LastReport() Report {
	return p.reported
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
