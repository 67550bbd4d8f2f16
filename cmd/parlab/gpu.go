package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chewxy/math32"

	"github.com/parlab-go/parlab/bench"
	"github.com/parlab-go/parlab/gpu"
	"github.com/parlab-go/parlab/vec"
)

func cmdGPU(args []string) int {
	fs := flag.NewFlagSet("gpu", flag.ExitOnError)
	size := fs.Int("size", 256, "square matrix dimension")
	device := fs.String("device", "cpu", "device: cpu or webgpu")
	fs.Parse(args)

	var dev gpu.Device
	switch *device {
	case "cpu":
		dev = gpu.NewCPU()
	case "webgpu":
		d, err := gpu.NewWebGPU()
		if err != nil {
			fmt.Fprintf(os.Stderr, "parlab: webgpu: %v\n", err)
			return 1
		}
		dev = d
	default:
		fmt.Fprintf(os.Stderr, "parlab: unknown device %q (want cpu or webgpu)\n", *device)
		return 2
	}
	defer dev.Release()

	fmt.Printf("device: %s\n", dev.Name())

	if err := saxpyDemo(dev, *size**size); err != nil {
		fmt.Fprintf(os.Stderr, "parlab: saxpy: %v\n", err)
		return 1
	}

	s := bench.NewSuite("matmul on " + dev.Name())
	s.RunMatMul([]int{*size}, []gpu.Device{dev})
	s.Transcript(os.Stdout)
	for _, r := range s.Results {
		if !r.Correct {
			return 1
		}
	}
	return 0
}

// saxpyDemo runs y = alpha*x + y on the device and checks it against
// the host vec kernel. The tolerance covers devices that fuse the
// multiply-add into one rounding.
func saxpyDemo(dev gpu.Device, n int) error {
	const alpha = 2.0

	x := make([]float32, n)
	y := make([]float32, n)
	for i := range x {
		x[i] = float32(i%17) / 4
		y[i] = float32(i%5) - 2
	}
	want := make([]float32, n)
	vec.Axpy(want, alpha, x, y)

	dx, err := dev.Alloc(n)
	if err != nil {
		return err
	}
	defer dev.Free(dx)
	dy, err := dev.Alloc(n)
	if err != nil {
		return err
	}
	defer dev.Free(dy)
	if err := dev.Upload(dx, x); err != nil {
		return err
	}
	if err := dev.Upload(dy, y); err != nil {
		return err
	}

	start := time.Now()
	if err := dev.Saxpy(alpha, dx, dy, n); err != nil {
		return err
	}
	got := make([]float32, n)
	if err := dev.Download(got, dy); err != nil {
		return err
	}
	elapsed := time.Since(start)

	for i := range got {
		scale := math32.Max(math32.Abs(want[i]), 1)
		if math32.Abs(got[i]-want[i]) > 1e-5*scale {
			return fmt.Errorf("result disagrees with host at %d: %g vs %g", i, got[i], want[i])
		}
	}
	fmt.Printf("saxpy n=%d: ok in %v\n", n, elapsed.Round(time.Microsecond))
	return nil
}
