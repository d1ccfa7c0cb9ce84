package organizer

import (
	"math"
	"sync"
)

// Phase is one step of the pipeline. Phases run strictly in order.
type Phase int

const (
	PhaseScanning Phase = iota
	PhaseExactDedup
	PhaseFingerprinting
	PhaseVisualDedup
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseExactDedup:
		return "exact_dedup"
	case PhaseFingerprinting:
		return "fingerprinting"
	case PhaseVisualDedup:
		return "visual_dedup"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// phaseSpan is the slice of the 0..100 range a phase occupies.
type phaseSpan struct {
	start  float64
	weight float64
}

var phaseSpans = map[Phase]phaseSpan{
	PhaseScanning:       {start: 0.00, weight: 0.40},
	PhaseExactDedup:     {start: 0.40, weight: 0.40},
	PhaseFingerprinting: {start: 0.80, weight: 0.10},
	PhaseVisualDedup:    {start: 0.90, weight: 0.10},
	PhaseDone:           {start: 1.00, weight: 0},
}

// ProgressFunc receives overall progress in [0,100]. Successive values
// never decrease and a successful run ends with exactly 100.
type ProgressFunc func(percent int)

// ChannelProgress adapts a channel into a ProgressFunc. Sends block, so
// the channel must be drained concurrently or buffered for at least
// 101 values.
func ChannelProgress(ch chan<- int) ProgressFunc {
	return func(percent int) {
		ch <- percent
	}
}

// progressReporter folds per-phase completion counts into one monotonic
// percentage. Workers call step from any goroutine.
type progressReporter struct {
	mu      sync.Mutex
	fn      ProgressFunc
	span    phaseSpan
	total   int
	done    int
	last    int
	emitted bool
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

// begin enters phase with total items and reports its starting value.
func (r *progressReporter) begin(phase Phase, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.span = phaseSpans[phase]
	r.total = total
	r.done = 0
	r.emitLocked(r.span.start)
}

// step records one finished item of the current phase.
func (r *progressReporter) step() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.total <= 0 {
		return
	}
	r.done++
	frac := math.Min(float64(r.done)/float64(r.total), 1)
	r.emitLocked(r.span.start + r.span.weight*frac)
}

func (r *progressReporter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitLocked(1)
}

func (r *progressReporter) emitLocked(fraction float64) {
	percent := int(math.Round(fraction * 100))
	percent = max(0, min(100, percent))
	if r.emitted && percent <= r.last {
		return
	}
	r.last = percent
	r.emitted = true
	if r.fn != nil {
		r.fn(percent)
	}
}
