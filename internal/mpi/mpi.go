// Package mpi is the message-passing lab: an in-process SPMD harness
// where ranks are goroutines and the interconnect is a full mesh of
// buffered channels. The collectives are real algorithms, not
// bindings: a dissemination barrier, a binomial broadcast tree, and a
// ring allreduce.
package mpi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// linkBuffer is the per-link eager capacity. Sends complete
// immediately while the link has room and block (rendezvous) once it
// is full, like a real interconnect's eager/rendezvous switch.
const linkBuffer = 16

// Reserved tags for the collectives. User tags must be non-negative.
const (
	tagBarrier = -1 - iota
	tagBcast
	tagReduce
	tagAllreduce
	tagGather
	tagScatter
	tagAllgather
)

// Op is a reduction operation applied elementwise across ranks.
type Op int

const (
	OpSum Op = iota
	OpProd
	OpMax
	OpMin
)

// String returns the operation name used in transcripts.
func (op Op) String() string {
	switch op {
	case OpSum:
		return "sum"
	case OpProd:
		return "prod"
	case OpMax:
		return "max"
	case OpMin:
		return "min"
	default:
		return "unknown"
	}
}

// Root is the conventional coordinator rank.
const Root int = 0

// payloadKind discriminates what a message carries.
type payloadKind uint8

const (
	kindF64 payloadKind = iota
	kindInt
)

// message is one transfer on the interconnect.
type message struct {
	tag  int
	kind payloadKind
	f64  []float64
	ints []int
}

// world is the shared interconnect for one Launch.
type world struct {
	ctx  context.Context
	size int

	// links[src][dst] carries messages from src to dst.
	links [][]chan message

	// outMu serializes Printf/AllPrintf lines across ranks.
	outMu sync.Mutex
	out   io.Writer
}

// Comm is one rank's endpoint into the world. All communication
// operates as methods on it. A Comm belongs to its rank's goroutine
// and must not be shared.
type Comm struct {
	w    *world
	rank int

	// pending[src] holds received messages whose tag did not match an
	// earlier Recv: the unexpected-message queue.
	pending [][]message

	// err records the first failed operation for Launch to report.
	err error
}

// Rank returns this rank's ID within the world.
func (c *Comm) Rank() int { return c.rank }

// Size returns the number of ranks in the world.
func (c *Comm) Size() int { return c.w.size }

// fail records the first error an operation returns.
func (c *Comm) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return err
}

// Launch starts size ranks, each running main with its own Comm, and
// waits for all of them. It returns the errors the ranks' operations
// recorded, joined in rank order.
//
// Collectives must be called by every rank in the same order;
// mismatched calls deadlock like real MPI. Use LaunchContext to bound
// a run and learn which ranks were blocked where.
func Launch(size int, main func(c *Comm)) error {
	return LaunchContext(context.Background(), size, main)
}

// LaunchContext is Launch with a context. When ctx expires, every
// blocked operation returns an error naming its rank, peer, and tag,
// so a deadlocked run reports who was stuck waiting for whom.
func LaunchContext(ctx context.Context, size int, main func(c *Comm)) error {
	return launch(ctx, size, os.Stdout, main)
}

func launch(ctx context.Context, size int, out io.Writer, main func(c *Comm)) error {
	if size < 1 {
		return fmt.Errorf("mpi: world size must be at least 1, got %d", size)
	}

	w := &world{
		ctx:   ctx,
		size:  size,
		links: make([][]chan message, size),
		out:   out,
	}
	for src := range w.links {
		w.links[src] = make([]chan message, size)
		for dst := range w.links[src] {
			w.links[src][dst] = make(chan message, linkBuffer)
		}
	}

	comms := make([]*Comm, size)
	var wg sync.WaitGroup
	for rank := 0; rank < size; rank++ {
		c := &Comm{
			w:       w,
			rank:    rank,
			pending: make([][]message, size),
		}
		comms[rank] = c

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.fail(fmt.Errorf("mpi: rank %d panicked: %v", c.rank, r))
				}
			}()
			main(c)
		}()
	}
	wg.Wait()

	errs := make([]error, size)
	for rank, c := range comms {
		errs[rank] = c.err
	}
	return errors.Join(errs...)
}

// Printf prints on rank 0 only, so SPMD code can log once without
// guarding every call site.
func (c *Comm) Printf(format string, args ...any) {
	if c.rank != Root {
		return
	}
	c.w.outMu.Lock()
	defer c.w.outMu.Unlock()
	fmt.Fprintf(c.w.out, format, args...)
}

// AllPrintf prints on every rank with a "P<rank>: " prefix, one line
// at a time. This is the tool for watching an algorithm's schedule.
func (c *Comm) AllPrintf(format string, args ...any) {
	c.w.outMu.Lock()
	defer c.w.outMu.Unlock()
	fmt.Fprintf(c.w.out, fmt.Sprintf("P%d: ", c.rank)+format, args...)
}
