package organizer

import (
	"sync"
	"testing"
)

func collect() (*[]int, ProgressFunc) {
	var mu sync.Mutex
	values := &[]int{}
	return values, func(p int) {
		mu.Lock()
		*values = append(*values, p)
		mu.Unlock()
	}
}

func TestProgressReporter_ZeroItems(t *testing.T) {
	values, fn := collect()
	r := newProgressReporter(fn)

	r.begin(PhaseScanning, 0)
	r.step()
	r.begin(PhaseExactDedup, 0)
	r.begin(PhaseFingerprinting, 0)
	r.begin(PhaseVisualDedup, 0)
	r.finish()

	want := []int{0, 40, 80, 90, 100}
	if len(*values) != len(want) {
		t.Fatalf("values = %v, want %v", *values, want)
	}
	for i := range want {
		if (*values)[i] != want[i] {
			t.Errorf("values[%d] = %d, want %d", i, (*values)[i], want[i])
		}
	}
}

func TestProgressReporter_Weights(t *testing.T) {
	tests := []struct {
		phase Phase
		total int
		steps int
		want  int
	}{
		{PhaseScanning, 4, 1, 10},
		{PhaseScanning, 4, 4, 40},
		{PhaseExactDedup, 2, 1, 60},
		{PhaseFingerprinting, 3, 1, 83},
		{PhaseVisualDedup, 1, 1, 100},
		{PhaseScanning, 3, 5, 40},
	}

	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			values, fn := collect()
			r := newProgressReporter(fn)
			r.begin(tt.phase, tt.total)
			for i := 0; i < tt.steps; i++ {
				r.step()
			}
			got := (*values)[len(*values)-1]
			if got != tt.want {
				t.Errorf("after %d/%d steps: %d, want %d", tt.steps, tt.total, got, tt.want)
			}
		})
	}
}

func TestProgressReporter_NeverDecreases(t *testing.T) {
	values, fn := collect()
	r := newProgressReporter(fn)

	r.begin(PhaseExactDedup, 10)
	for i := 0; i < 10; i++ {
		r.step()
	}
	// Entering an earlier span must not move progress backwards.
	r.begin(PhaseScanning, 1)
	r.step()
	r.finish()
	r.finish()

	prev := -1
	for _, v := range *values {
		if v <= prev {
			t.Fatalf("progress not strictly increasing: %v", *values)
		}
		prev = v
	}
	if prev != 100 {
		t.Errorf("last value = %d, want 100", prev)
	}
}

func TestProgressReporter_ConcurrentSteps(t *testing.T) {
	values, fn := collect()
	r := newProgressReporter(fn)
	r.begin(PhaseScanning, 200)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.step()
		}()
	}
	wg.Wait()

	prev := -1
	for _, v := range *values {
		if v < prev {
			t.Fatalf("progress decreased: %v", *values)
		}
		prev = v
	}
	if prev != 40 {
		t.Errorf("last value = %d, want 40", prev)
	}
}

func TestProgressReporter_NilFunc(t *testing.T) {
	r := newProgressReporter(nil)
	r.begin(PhaseScanning, 1)
	r.step()
	r.finish()
}

func TestChannelProgress(t *testing.T) {
	ch := make(chan int, 3)
	fn := ChannelProgress(ch)
	fn(0)
	fn(50)
	fn(100)
	close(ch)

	var got []int
	for v := range ch {
		got = append(got, v)
	}
	if len(got) != 3 || got[2] != 100 {
		t.Errorf("got %v", got)
	}
}

func TestPhaseString(t *testing.T) {
	phases := map[Phase]string{
		PhaseScanning:       "scanning",
		PhaseExactDedup:     "exact_dedup",
		PhaseFingerprinting: "fingerprinting",
		PhaseVisualDedup:    "visual_dedup",
		PhaseDone:           "done",
		Phase(42):           "unknown",
	}
	for p, want := range phases {
		if p.String() != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, p.String(), want)
		}
	}
}
