package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/parlab-go/parlab/bench"
	"github.com/parlab-go/parlab/gpu"
	"github.com/parlab-go/parlab/hw"
	"github.com/parlab-go/parlab/vec"
	"github.com/parlab-go/parlab/work"
)

func cmdInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	fmt.Print(hw.Detect())
	if gpu.WebGPUAvailable() {
		fmt.Println("webgpu:     adapter available")
	} else {
		fmt.Println("webgpu:     no adapter")
	}
	return 0
}

func cmdRace(args []string) int {
	fs := flag.NewFlagSet("race", flag.ExitOnError)
	workers := fs.Int("workers", runtime.NumCPU(), "goroutines hammering each counter")
	incs := fs.Int("incs", 1<<20, "total increments per counter")
	fs.Parse(args)

	s := bench.NewSuite("shared counters")
	s.RunCounters(*incs, *workers)
	s.Transcript(os.Stdout)
	return 0
}

func cmdPhilosophers(args []string) int {
	fs := flag.NewFlagSet("philosophers", flag.ExitOnError)
	n := fs.Int("n", 5, "philosophers at the table")
	meals := fs.Int("meals", 200, "meals each philosopher must eat")
	strategy := fs.String("strategy", "waiter", "fork strategy: deadlock, order, or waiter")
	timeout := fs.Duration("timeout", 5*time.Second, "give up after this long")
	fs.Parse(args)

	strat, err := work.ParseStrategy(*strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	rep, err := work.Dine(ctx, *n, *meals, strat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}

	fmt.Printf("%d philosophers, %d meals each, strategy %s\n",
		rep.Philosophers, rep.MealsTarget, strat)
	for i, m := range rep.Meals {
		fmt.Printf("  P%d ate %d\n", i, m)
	}
	if rep.DeadlockSuspected {
		fmt.Printf("deadlock suspected after %v: %d of %d meals eaten\n",
			rep.Elapsed.Round(time.Millisecond), rep.TotalMeals(), rep.Philosophers*rep.MealsTarget)
		if strat != work.Deadlock {
			return 1
		}
		return 0
	}
	fmt.Printf("everyone fed in %v\n", rep.Elapsed.Round(time.Millisecond))
	return 0
}

// sink keeps reduction results alive across timing reps.
var sink float32

func cmdSIMD(args []string) int {
	fs := flag.NewFlagSet("simd", flag.ExitOnError)
	size := fs.Int("size", 1<<20, "vector length")
	forceGeneric := fs.Bool("force-generic", false, "pin dispatch to the scalar baseline")
	fs.Parse(args)

	vec.ForceGeneric(*forceGeneric)

	fmt.Println("implementations:")
	for _, im := range vec.Impls() {
		fmt.Printf("  %-8s priority %d\n", im.Name, im.Priority)
	}
	fmt.Printf("dispatching to: %s\n\n", vec.ActiveName())

	n := *size
	a := make([]float32, n)
	b := make([]float32, n)
	dst := make([]float32, n)
	for i := range a {
		a[i] = float32(i%9) - 4
		b[i] = float32(i%7) - 3
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KERNEL\tN\tELAPSED\tRATE")
	row := func(name string, f func()) {
		el := minTime(f)
		fmt.Fprintf(tw, "%s\t%d\t%v\t%.1fM elems/s\n",
			name, n, el.Round(time.Microsecond), float64(n)/el.Seconds()/1e6)
	}
	row("add", func() { vec.Add(dst, a, b) })
	row("mul", func() { vec.Mul(dst, a, b) })
	row("scale", func() { vec.Scale(dst, a, 2.5) })
	row("axpy", func() { vec.Axpy(dst, 2.5, a, b) })
	row("dot", func() { sink = vec.Dot(a, b) })
	row("sum", func() { sink = vec.Sum(a) })
	tw.Flush()
	return 0
}

// minTime runs f five times after a warmup and keeps the fastest.
func minTime(f func()) time.Duration {
	f()
	var best time.Duration
	for i := 0; i < 5; i++ {
		start := time.Now()
		f()
		if d := time.Since(start); i == 0 || d < best {
			best = d
		}
	}
	return best
}
