package bench

import (
	"strings"
	"testing"
	"time"

	"github.com/parlab-go/parlab/internal/gpu"
	"github.com/parlab-go/parlab/internal/gpu/cpu"
)

// One hammering goroutine keeps even the racy counter exact, so these
// stay deterministic under the race detector.
func TestRunCountersSingleWorker(t *testing.T) {
	s := NewSuite("counters")
	s.Reps = 1
	s.RunCounters(1000, 1)

	if len(s.Results) != 5 {
		t.Fatalf("got %d results, want one per counter flavor", len(s.Results))
	}
	for _, r := range s.Results {
		if !strings.HasPrefix(r.Name, "counters/") {
			t.Errorf("result name %q", r.Name)
		}
		if !r.Correct {
			t.Errorf("%s lost increments with one worker: %+v", r.Name, r)
		}
		if r.N != 1000 {
			t.Errorf("%s counted N = %d, want 1000", r.Name, r.N)
		}
	}
}

func TestRunVecDispatchMatchesGeneric(t *testing.T) {
	s := NewSuite("vec")
	s.Reps = 1
	s.RunVec([]int{129})

	if len(s.Results) != 4 {
		t.Fatalf("got %d results, want add and dot twice each", len(s.Results))
	}
	for _, r := range s.Results {
		if !r.Correct {
			t.Errorf("%s disagrees with the generic kernel", r.Name)
		}
		if r.Throughput <= 0 {
			t.Errorf("%s has no throughput", r.Name)
		}
	}
}

func TestRunMatMulAgainstOracle(t *testing.T) {
	dev := cpu.New()
	defer dev.Release()

	s := NewSuite("matmul")
	s.Reps = 1
	s.RunMatMul([]int{8, 17}, []gpu.Device{dev})

	if len(s.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(s.Results))
	}
	for _, r := range s.Results {
		if !r.Correct {
			t.Errorf("%s n=%d failed the oracle check: %s", r.Name, r.N, r.Note)
		}
		if !strings.Contains(r.Note, "GFLOP/s") {
			t.Errorf("%s note %q has no FLOP rate", r.Name, r.Note)
		}
	}
}

func TestRunPhilosophersStrategies(t *testing.T) {
	s := NewSuite("philosophers")
	s.RunPhilosophers(5, 30, 300*time.Millisecond)

	if len(s.Results) != 3 {
		t.Fatalf("got %d results, want one per strategy", len(s.Results))
	}
	for _, r := range s.Results {
		if !r.Correct {
			t.Errorf("%s: %+v", r.Name, r)
		}
	}
	for _, name := range []string{"philosophers/order", "philosophers/waiter"} {
		found := false
		for _, r := range s.Results {
			if r.Name == name {
				found = true
				if r.Note != "150 meals" {
					t.Errorf("%s note = %q, want all 150 meals", name, r.Note)
				}
			}
		}
		if !found {
			t.Errorf("no result named %s", name)
		}
	}
}

func TestRunAllreduceMatchesOracle(t *testing.T) {
	s := NewSuite("allreduce")
	s.Reps = 1
	s.RunAllreduce(4, []int{1, 33})

	if len(s.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(s.Results))
	}
	for _, r := range s.Results {
		if !r.Correct {
			t.Errorf("mpi/allreduce n=%d wrong: %s", r.N, r.Note)
		}
		if r.Workers != 4 {
			t.Errorf("Workers = %d, want 4", r.Workers)
		}
	}
}

func TestRunFullSuiteSmall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reps = 1
	cfg.Counters.N = 100
	cfg.Counters.Workers = 1
	cfg.Vec.Sizes = []int{64}
	cfg.MatMul.Sizes = []int{8}
	cfg.MatMul.WebGPU = false
	cfg.Philosophers.Meals = 10
	cfg.Philosophers.Timeout = "300ms"
	cfg.Allreduce.Ranks = 2
	cfg.Allreduce.Sizes = []int{8}

	s, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := 5 + 4 + 1 + 3 + 1; len(s.Results) != want {
		t.Fatalf("got %d results, want %d", len(s.Results), want)
	}
	for _, r := range s.Results {
		if !r.Correct {
			t.Errorf("%s incorrect: %+v", r.Name, r)
		}
	}
}
