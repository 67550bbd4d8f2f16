package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/chewxy/math32"

	"github.com/parlab-go/parlab/internal/gpu"
	"github.com/parlab-go/parlab/internal/gpu/cpu"
	"github.com/parlab-go/parlab/internal/gpu/webgpu"
	"github.com/parlab-go/parlab/internal/mpi"
	"github.com/parlab-go/parlab/internal/tensor"
	"github.com/parlab-go/parlab/internal/vec"
	"github.com/parlab-go/parlab/internal/work"
)

// Run executes every enabled suite section and returns the collected
// results. It does not write the JSON file; callers do that with the
// path they chose.
func Run(cfg Config) (*Suite, error) {
	s := NewSuite(cfg.Title)
	if cfg.Reps > 0 {
		s.Reps = cfg.Reps
	}

	if cfg.Counters.Enabled {
		s.RunCounters(cfg.Counters.N, cfg.Counters.Workers)
	}
	if cfg.Vec.Enabled {
		s.RunVec(cfg.Vec.Sizes)
	}
	if cfg.MatMul.Enabled {
		devices := []gpu.Device{cpu.New()}
		if cfg.MatMul.WebGPU {
			if dev, err := webgpu.New(); err == nil {
				devices = append(devices, dev)
				defer dev.Release()
			} else {
				s.Add(Result{Name: "matmul/webgpu", Correct: true, Note: "skipped: " + err.Error()})
			}
		}
		s.RunMatMul(cfg.MatMul.Sizes, devices)
	}
	if cfg.Philosophers.Enabled {
		timeout, err := cfg.philosophersTimeout()
		if err != nil {
			return s, err
		}
		s.RunPhilosophers(cfg.Philosophers.Seats, cfg.Philosophers.Meals, timeout)
	}
	if cfg.Allreduce.Enabled {
		s.RunAllreduce(cfg.Allreduce.Ranks, cfg.Allreduce.Sizes)
	}
	return s, nil
}

// RunCounters hammers every counter flavor with the same increment
// load. Synchronized counters must come out exact; the racy one is
// expected to lose updates once workers > 1, and its row shows how
// many.
func (s *Suite) RunCounters(n, workers int) {
	if workers < 1 {
		workers = 1
	}
	per := n / workers
	if per < 1 {
		per = 1
	}
	counters := []work.Counter{
		&work.RacyCounter{},
		&work.MutexCounter{},
		&work.AtomicCounter{},
		&work.SpinCounter{},
		work.NewSharded(workers),
	}
	for _, c := range counters {
		rep := work.Hammer(c, workers, per)
		r := Result{
			Name:       "counters/" + rep.Counter,
			N:          int(rep.Expected),
			Workers:    workers,
			Elapsed:    rep.Elapsed,
			Throughput: rate(int(rep.Expected), rep.Elapsed),
			Correct:    rep.Lost == 0,
		}
		if rep.Lost > 0 {
			r.Note = fmt.Sprintf("lost %d of %d increments", rep.Lost, rep.Expected)
		}
		s.Add(r)
	}
}

// RunVec times the elementwise kernels generic versus dispatched at
// each size and checks the dispatched results against the generic
// ones.
func (s *Suite) RunVec(sizes []int) {
	defer vec.ForceGeneric(false)
	for _, n := range sizes {
		a := make([]float32, n)
		b := make([]float32, n)
		dst := make([]float32, n)
		ref := make([]float32, n)
		for i := range a {
			a[i] = float32(i%9) - 4
			b[i] = float32(i%7) - 3
		}

		vec.ForceGeneric(true)
		var dotRef float32
		genAdd := s.time(func() { vec.Add(ref, a, b) })
		genDot := s.time(func() { dotRef = vec.Dot(a, b) })

		vec.ForceGeneric(false)
		active := vec.ActiveName()
		var dotGot float32
		actAdd := s.time(func() { vec.Add(dst, a, b) })
		actDot := s.time(func() { dotGot = vec.Dot(a, b) })

		addOK := true
		for i := range dst {
			if dst[i] != ref[i] {
				addOK = false
				break
			}
		}

		s.Add(Result{Name: "vec/add/generic", N: n, Elapsed: genAdd,
			Throughput: rate(n, genAdd), Correct: true})
		s.Add(Result{Name: "vec/add/" + active, N: n, Elapsed: actAdd,
			Throughput: rate(n, actAdd), Correct: addOK, Note: speedup(genAdd, actAdd)})
		s.Add(Result{Name: "vec/dot/generic", N: n, Elapsed: genDot,
			Throughput: rate(n, genDot), Correct: true})
		s.Add(Result{Name: "vec/dot/" + active, N: n, Elapsed: actDot,
			Throughput: rate(n, actDot), Correct: relClose(dotGot, dotRef, 1e-5),
			Note: speedup(genDot, actDot)})
	}
}

// RunMatMul multiplies square matrices on each device and checks them
// against a float64 host oracle. Throughput is FLOP/s, counting the
// usual 2*n^3.
func (s *Suite) RunMatMul(sizes []int, devices []gpu.Device) {
	for _, dev := range devices {
		for _, n := range sizes {
			s.Add(s.matmulOn(dev, n))
		}
	}
}

func (s *Suite) matmulOn(dev gpu.Device, n int) Result {
	r := Result{Name: "matmul/" + dev.Name(), N: n}

	ta, err := tensor.NewRaw(tensor.Shape{n, n}, tensor.Float32)
	if err != nil {
		r.Note = err.Error()
		return r
	}
	defer ta.Release()
	tb, err := tensor.NewRaw(tensor.Shape{n, n}, tensor.Float32)
	if err != nil {
		r.Note = err.Error()
		return r
	}
	defer tb.Release()
	tc, err := tensor.NewRaw(tensor.Shape{n, n}, tensor.Float32)
	if err != nil {
		r.Note = err.Error()
		return r
	}
	defer tc.Release()

	a, b := ta.AsFloat32(), tb.AsFloat32()
	for i := range a {
		a[i] = float32(i%13)/8 - 0.5
		b[i] = float32(i%11)/8 - 0.5
	}

	da, err := dev.Alloc(n * n)
	if err != nil {
		r.Note = err.Error()
		return r
	}
	defer dev.Free(da)
	db, err := dev.Alloc(n * n)
	if err != nil {
		r.Note = err.Error()
		return r
	}
	defer dev.Free(db)
	dc, err := dev.Alloc(n * n)
	if err != nil {
		r.Note = err.Error()
		return r
	}
	defer dev.Free(dc)

	if err := dev.Upload(da, a); err != nil {
		r.Note = err.Error()
		return r
	}
	if err := dev.Upload(db, b); err != nil {
		r.Note = err.Error()
		return r
	}

	var kerr error
	r.Elapsed = s.time(func() {
		if err := dev.MatMul(da, db, dc, n, n, n); err != nil && kerr == nil {
			kerr = err
		}
	})
	if kerr != nil {
		r.Note = kerr.Error()
		return r
	}

	c := tc.AsFloat32()
	if err := dev.Download(c, dc); err != nil {
		r.Note = err.Error()
		return r
	}

	r.Correct = matmulClose(c, a, b, n)
	r.Throughput = rate(2*n*n*n, r.Elapsed)
	r.Note = fmt.Sprintf("%.2f GFLOP/s", r.Throughput/1e9)
	return r
}

// matmulClose checks c against a float64 recomputation. The tolerance
// is loose enough for n-term float32 accumulation in any order.
func matmulClose(c, a, b []float32, n int) bool {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var acc float64
			for k := 0; k < n; k++ {
				acc += float64(a[i*n+k]) * float64(b[k*n+j])
			}
			want := float32(acc)
			diff := math32.Abs(c[i*n+j] - want)
			if diff > 1e-3*math32.Max(math32.Abs(want), 1) {
				return false
			}
		}
	}
	return true
}

// RunPhilosophers seats the table once per fork strategy. The naive
// strategy is expected to stall before the meals run out; ordered
// acquisition and the waiter must feed everyone.
func (s *Suite) RunPhilosophers(seats, meals int, timeout time.Duration) {
	for _, strat := range []work.Strategy{work.Deadlock, work.GlobalOrder, work.Waiter} {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		rep, err := work.Dine(ctx, seats, meals, strat)
		cancel()

		r := Result{Name: "philosophers/" + strat.String(), N: meals, Workers: seats}
		if err != nil {
			r.Note = err.Error()
			s.Add(r)
			continue
		}
		r.Elapsed = rep.Elapsed
		r.Throughput = rate(rep.TotalMeals(), rep.Elapsed)
		if strat == work.Deadlock {
			r.Correct = true
			r.Note = fmt.Sprintf("deadlocked after %d of %d meals", rep.TotalMeals(), seats*meals)
			if !rep.DeadlockSuspected {
				r.Note = "got lucky, no deadlock this run"
			}
		} else {
			r.Correct = !rep.DeadlockSuspected && rep.TotalMeals() == seats*meals
			r.Note = fmt.Sprintf("%d meals", rep.TotalMeals())
		}
		s.Add(r)
	}
}

// RunAllreduce times a full launch-allreduce-verify cycle per size.
// Rank spin-up is inside the measurement; it is part of what the
// in-process world costs.
func (s *Suite) RunAllreduce(ranks int, sizes []int) {
	if ranks < 1 {
		ranks = 1
	}
	for _, n := range sizes {
		want := make([]float64, n)
		for i := range want {
			for rk := 0; rk < ranks; rk++ {
				want[i] += rankValue(rk, i)
			}
		}

		ok := make([]bool, ranks)
		var lerr error
		elapsed := s.time(func() {
			for i := range ok {
				ok[i] = false
			}
			lerr = mpi.Launch(ranks, func(c *mpi.Comm) {
				src := make([]float64, n)
				for i := range src {
					src[i] = rankValue(c.Rank(), i)
				}
				dst := make([]float64, n)
				if err := c.Allreduce(dst, src, mpi.OpSum); err != nil {
					return
				}
				for i := range dst {
					if dst[i] != want[i] {
						return
					}
				}
				ok[c.Rank()] = true
			})
		})

		correct := lerr == nil
		for _, b := range ok {
			correct = correct && b
		}
		r := Result{
			Name:       "mpi/allreduce",
			N:          n,
			Workers:    ranks,
			Elapsed:    elapsed,
			Throughput: rate(n*ranks, elapsed),
			Correct:    correct,
		}
		if lerr != nil {
			r.Note = lerr.Error()
		}
		s.Add(r)
	}
}

// rankValue is each rank's contribution at index i: small integers, so
// float64 sums are exact under any association.
func rankValue(rank, i int) float64 {
	return float64((rank+i)%5 + 1)
}

func rate(items int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(items) / d.Seconds()
}

func relClose(got, want, tol float32) bool {
	scale := math32.Max(math32.Abs(got), math32.Abs(want))
	if scale < 1 {
		scale = 1
	}
	return math32.Abs(got-want) <= tol*scale
}

func speedup(base, opt time.Duration) string {
	if opt <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2fx vs generic", float64(base)/float64(opt))
}
