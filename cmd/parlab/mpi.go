package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/parlab-go/parlab/mpi"
)

func cmdMPI(args []string) int {
	fs := flag.NewFlagSet("mpi", flag.ExitOnError)
	ranks := fs.Int("ranks", runtime.NumCPU(), "world size")
	demo := fs.String("demo", "pi", "demo: pi, ring, or allreduce")
	fs.Parse(args)

	var err error
	switch *demo {
	case "pi":
		err = mpiPi(*ranks)
	case "ring":
		err = mpiRing(*ranks)
	case "allreduce":
		err = mpiAllreduce(*ranks)
	default:
		fmt.Fprintf(os.Stderr, "parlab: unknown demo %q (want pi, ring, or allreduce)\n", *demo)
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "parlab: %v\n", err)
		return 1
	}
	return 0
}

// mpiPi integrates 4/(1+x^2) by the midpoint rule, the classic first
// message-passing program: every rank sums its stripes, one allreduce
// makes the total.
func mpiPi(ranks int) error {
	const steps = 10_000_000
	return mpi.Launch(ranks, func(c *mpi.Comm) {
		h := 1.0 / float64(steps)
		local := 0.0
		for i := c.Rank(); i < steps; i += c.Size() {
			x := (float64(i) + 0.5) * h
			local += 4 / (1 + x*x)
		}
		sum := []float64{0}
		if err := c.Allreduce(sum, []float64{local * h}, mpi.OpSum); err != nil {
			return
		}
		c.Printf("pi ~= %.12f (error %.3g) with %d ranks\n",
			sum[0], math.Abs(sum[0]-math.Pi), c.Size())
	})
}

// mpiRing sends a token once around the ring, every rank adding one
// before forwarding.
func mpiRing(ranks int) error {
	return mpi.Launch(ranks, func(c *mpi.Comm) {
		right := (c.Rank() + 1) % c.Size()
		left := (c.Rank() - 1 + c.Size()) % c.Size()

		if c.Rank() == 0 {
			if err := c.Send(right, []float64{1}); err != nil {
				return
			}
			v, err := c.Recv(left)
			if err != nil {
				return
			}
			c.Printf("token back at rank 0 with value %g after %d hops\n", v[0], c.Size())
			return
		}

		v, err := c.Recv(left)
		if err != nil {
			return
		}
		c.AllPrintf("forwarding token %g\n", v[0]+1)
		if err := c.Send(right, []float64{v[0] + 1}); err != nil {
			return
		}
	})
}

// mpiAllreduce sums one vector across the world and has every rank
// print the identical result.
func mpiAllreduce(ranks int) error {
	const n = 8
	return mpi.Launch(ranks, func(c *mpi.Comm) {
		src := make([]float64, n)
		for i := range src {
			src[i] = float64(c.Rank()*n + i)
		}
		dst := make([]float64, n)
		if err := c.Allreduce(dst, src, mpi.OpSum); err != nil {
			return
		}
		c.AllPrintf("sum = %v\n", dst)
	})
}
