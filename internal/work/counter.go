package work

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

// Counter is a shared counter incremented by many goroutines at once.
// The implementations differ only in how (or whether) they synchronize.
type Counter interface {
	Add(delta int64)
	Load() int64
	Name() string
}

// RacyCounter increments without synchronization. Concurrent Adds lose
// updates: the read-modify-write is not atomic, so two goroutines can read
// the same value and both write back value+1. It exists to measure exactly
// that loss. Do not use it under the race detector with concurrent writers.
type RacyCounter struct {
	n int64
}

func (c *RacyCounter) Add(delta int64) { c.n += delta }
func (c *RacyCounter) Load() int64     { return c.n }
func (c *RacyCounter) Name() string    { return "racy" }

// MutexCounter serializes every increment behind a sync.Mutex.
type MutexCounter struct {
	mu sync.Mutex
	n  int64
}

func (c *MutexCounter) Add(delta int64) {
	c.mu.Lock()
	c.n += delta
	c.mu.Unlock()
}

func (c *MutexCounter) Load() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *MutexCounter) Name() string { return "mutex" }

// AtomicCounter uses a single hardware atomic add.
type AtomicCounter struct {
	n atomic.Int64
}

func (c *AtomicCounter) Add(delta int64) { c.n.Add(delta) }
func (c *AtomicCounter) Load() int64     { return c.n.Load() }
func (c *AtomicCounter) Name() string    { return "atomic" }

// SpinCounter guards the count with a test-and-set spinlock. Waiters burn
// CPU retrying the CAS, yielding to the scheduler between attempts.
type SpinCounter struct {
	state atomic.Int32
	n     int64
}

func (c *SpinCounter) Add(delta int64) {
	for !c.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
	c.n += delta
	c.state.Store(0)
}

func (c *SpinCounter) Load() int64 {
	for !c.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
	n := c.n
	c.state.Store(0)
	return n
}

func (c *SpinCounter) Name() string { return "spinlock" }

// cacheLineBytes is the common cache line size on current x86 and ARM
// server parts. Shard slots are padded to it so concurrent writers do not
// share a line.
const cacheLineBytes = 64

type shard struct {
	n atomic.Int64
	_ [cacheLineBytes - 8]byte
}

// ShardedCounter spreads increments over padded per-shard slots so writers
// rarely contend on the same cache line. Load sums the shards and is exact
// only at quiescence.
type ShardedCounter struct {
	shards []shard
}

// NewSharded creates a counter with the given number of shards.
// shards <= 0 selects GOMAXPROCS.
func NewSharded(shards int) *ShardedCounter {
	if shards <= 0 {
		shards = runtime.GOMAXPROCS(0)
	}
	return &ShardedCounter{shards: make([]shard, shards)}
}

func (c *ShardedCounter) Add(delta int64) {
	// Shard keyed by goroutine stack address: distinct goroutines land on
	// distinct shards most of the time. A collision only costs contention.
	var probe byte
	idx := (uintptr(unsafe.Pointer(&probe)) >> 10) % uintptr(len(c.shards))
	c.shards[idx].n.Add(delta)
}

func (c *ShardedCounter) Load() int64 {
	var total int64
	for i := range c.shards {
		total += c.shards[i].n.Load()
	}
	return total
}

func (c *ShardedCounter) Name() string { return "sharded" }

// RaceReport is the outcome of hammering one counter from many goroutines.
type RaceReport struct {
	Counter   string
	Workers   int
	PerWorker int
	Expected  int64
	Observed  int64
	Lost      int64
	Elapsed   time.Duration
}

// Hammer spawns workers goroutines, each adding 1 to c incsPerWorker
// times, and reports expected versus observed totals. With a synchronized
// counter Lost is always 0; with RacyCounter it is usually not.
func Hammer(c Counter, workers, incsPerWorker int) RaceReport {
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < incsPerWorker; i++ {
				c.Add(1)
			}
		}()
	}
	wg.Wait()

	expected := int64(workers) * int64(incsPerWorker)
	observed := c.Load()
	return RaceReport{
		Counter:   c.Name(),
		Workers:   workers,
		PerWorker: incsPerWorker,
		Expected:  expected,
		Observed:  observed,
		Lost:      expected - observed,
		Elapsed:   time.Since(start),
	}
}
