package mpi

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// rankData returns integer-valued payloads so tree and ring schedules
// agree exactly with a sequential fold. Products stay small powers of
// two to avoid rounding.
func rankData(op Op, rank, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		if op == OpProd {
			v[i] = float64(1 + (rank+i)%2)
		} else {
			v[i] = float64((rank*7+i*3)%11 - 5)
		}
	}
	return v
}

// seqReduce folds rankData over ranks in rank order.
func seqReduce(op Op, size, n int) []float64 {
	acc := rankData(op, 0, n)
	for r := 1; r < size; r++ {
		in := rankData(op, r, n)
		for i := range acc {
			switch op {
			case OpSum:
				acc[i] += in[i]
			case OpProd:
				acc[i] *= in[i]
			case OpMax:
				if in[i] > acc[i] {
					acc[i] = in[i]
				}
			case OpMin:
				if in[i] < acc[i] {
					acc[i] = in[i]
				}
			}
		}
	}
	return acc
}

func rootsFor(size int) []int {
	if size == 1 {
		return []int{0}
	}
	return []int{0, size - 1}
}

func TestOpString(t *testing.T) {
	cases := map[Op]string{OpSum: "sum", OpProd: "prod", OpMax: "max", OpMin: "min", Op(42): "unknown"}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", int(op), got, want)
		}
	}
}

func TestBarrier(t *testing.T) {
	for _, size := range []int{1, 2, 3, 6, 8} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			var before, after atomic.Int64
			err := Launch(size, func(c *Comm) {
				before.Add(1)
				if err := c.Barrier(); err != nil {
					t.Errorf("rank %d: first barrier: %v", c.Rank(), err)
					return
				}
				if got := before.Load(); got != int64(size) {
					t.Errorf("rank %d passed the barrier with %d of %d arrivals", c.Rank(), got, size)
				}
				after.Add(1)
				if err := c.Barrier(); err != nil {
					t.Errorf("rank %d: second barrier: %v", c.Rank(), err)
					return
				}
				if got := after.Load(); got != int64(size) {
					t.Errorf("rank %d passed the second barrier with %d of %d arrivals", c.Rank(), got, size)
				}
			})
			if err != nil {
				t.Fatalf("Launch failed: %v", err)
			}
		})
	}
}

func TestBcast(t *testing.T) {
	const n = 16
	for _, size := range []int{1, 2, 3, 5, 8} {
		for _, root := range rootsFor(size) {
			t.Run(fmt.Sprintf("size=%d root=%d", size, root), func(t *testing.T) {
				err := Launch(size, func(c *Comm) {
					buf := make([]float64, n)
					if c.Rank() == root {
						for i := range buf {
							buf[i] = float64(i*i + 1)
						}
					}
					if err := c.Bcast(buf, root); err != nil {
						t.Errorf("rank %d: %v", c.Rank(), err)
						return
					}
					for i := range buf {
						if want := float64(i*i + 1); buf[i] != want {
							t.Errorf("rank %d: buf[%d] = %v, want %v", c.Rank(), i, buf[i], want)
							return
						}
					}
				})
				if err != nil {
					t.Fatalf("Launch failed: %v", err)
				}
			})
		}
	}
}

func TestBcastLengthMismatch(t *testing.T) {
	err := Launch(2, func(c *Comm) {
		n := 4
		if c.Rank() == 1 {
			n = 2
		}
		_ = c.Bcast(make([]float64, n), 0)
	})
	if err == nil || !strings.Contains(err.Error(), "bcast buffer length mismatch") {
		t.Fatalf("Launch = %v, want bcast length error", err)
	}
}

func TestReduce(t *testing.T) {
	const n = 9
	for _, size := range []int{1, 2, 3, 5, 8} {
		for _, op := range []Op{OpSum, OpProd, OpMax, OpMin} {
			t.Run(fmt.Sprintf("size=%d %s", size, op), func(t *testing.T) {
				root := size - 1
				want := seqReduce(op, size, n)
				got := make([]float64, n)
				err := Launch(size, func(c *Comm) {
					src := rankData(op, c.Rank(), n)
					var dst []float64
					if c.Rank() == root {
						dst = got
					}
					if err := c.Reduce(dst, src, op, root); err != nil {
						t.Errorf("rank %d: %v", c.Rank(), err)
					}
				})
				if err != nil {
					t.Fatalf("Launch failed: %v", err)
				}
				for i := range want {
					if got[i] != want[i] {
						t.Errorf("%s[%d] = %v, want %v", op, i, got[i], want[i])
					}
				}
			})
		}
	}
}

func TestReduceRootOutOfRange(t *testing.T) {
	err := Launch(2, func(c *Comm) {
		_ = c.Reduce(nil, []float64{1}, OpSum, 5)
	})
	if err == nil || !strings.Contains(err.Error(), "root 5 outside world") {
		t.Fatalf("Launch = %v, want root range error", err)
	}
}

func TestReduceUnknownOp(t *testing.T) {
	err := Launch(2, func(c *Comm) {
		dst := make([]float64, 1)
		_ = c.Reduce(dst, []float64{2}, Op(42), 0)
	})
	if err == nil || !strings.Contains(err.Error(), "unknown reduction op 42") {
		t.Fatalf("Launch = %v, want unknown op report", err)
	}
}

func TestAllreduce(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5, 8} {
		// n below size leaves some ring chunks empty.
		for _, n := range []int{1, 3, 17} {
			for _, op := range []Op{OpSum, OpMax} {
				t.Run(fmt.Sprintf("size=%d n=%d %s", size, n, op), func(t *testing.T) {
					want := seqReduce(op, size, n)
					results := make([][]float64, size)
					err := Launch(size, func(c *Comm) {
						dst := make([]float64, n)
						if err := c.Allreduce(dst, rankData(op, c.Rank(), n), op); err != nil {
							t.Errorf("rank %d: %v", c.Rank(), err)
							return
						}
						results[c.Rank()] = dst
					})
					if err != nil {
						t.Fatalf("Launch failed: %v", err)
					}
					for rank, got := range results {
						for i := range want {
							if got[i] != want[i] {
								t.Errorf("rank %d: %s[%d] = %v, want %v", rank, op, i, got[i], want[i])
							}
						}
					}
				})
			}
		}
	}
}

// Every rank must hold the same bytes after an allreduce, even for
// float sums where the combine order matters: the ring fixes one order
// per chunk and the allgather pass distributes that single result.
func TestAllreduceBitIdentical(t *testing.T) {
	const size, n = 5, 17
	results := make([][]float64, size)
	err := Launch(size, func(c *Comm) {
		src := make([]float64, n)
		for i := range src {
			src[i] = 1.0 / float64(c.Rank()+i+1)
		}
		dst := make([]float64, n)
		if err := c.Allreduce(dst, src, OpSum); err != nil {
			t.Errorf("rank %d: %v", c.Rank(), err)
			return
		}
		results[c.Rank()] = dst
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	for rank := 1; rank < size; rank++ {
		for i := range results[0] {
			if results[rank][i] != results[0][i] {
				t.Errorf("rank %d diverges from rank 0 at [%d]: %v vs %v", rank, i, results[rank][i], results[0][i])
			}
		}
	}
}

func TestAllreduceLengthMismatch(t *testing.T) {
	err := Launch(1, func(c *Comm) {
		_ = c.Allreduce(make([]float64, 2), make([]float64, 3), OpSum)
	})
	if err == nil || !strings.Contains(err.Error(), "allreduce needs dst") {
		t.Fatalf("Launch = %v, want allreduce length error", err)
	}
}

func TestGather(t *testing.T) {
	const n = 3
	for _, size := range []int{1, 2, 4, 5} {
		for _, root := range rootsFor(size) {
			t.Run(fmt.Sprintf("size=%d root=%d", size, root), func(t *testing.T) {
				got := make([]float64, n*size)
				err := Launch(size, func(c *Comm) {
					src := make([]float64, n)
					for i := range src {
						src[i] = float64(c.Rank()*100 + i)
					}
					var dst []float64
					if c.Rank() == root {
						dst = got
					}
					if err := c.Gather(dst, src, root); err != nil {
						t.Errorf("rank %d: %v", c.Rank(), err)
					}
				})
				if err != nil {
					t.Fatalf("Launch failed: %v", err)
				}
				for rank := 0; rank < size; rank++ {
					for i := 0; i < n; i++ {
						if want := float64(rank*100 + i); got[rank*n+i] != want {
							t.Errorf("block %d[%d] = %v, want %v", rank, i, got[rank*n+i], want)
						}
					}
				}
			})
		}
	}
}

func TestGatherNeedsRoomAtRoot(t *testing.T) {
	err := Launch(3, func(c *Comm) {
		var dst []float64
		if c.Rank() == 0 {
			dst = make([]float64, 2)
		}
		_ = c.Gather(dst, []float64{1, 2}, 0)
	})
	if err == nil || !strings.Contains(err.Error(), "gather needs dst") {
		t.Fatalf("Launch = %v, want gather length error", err)
	}
}

func TestScatter(t *testing.T) {
	const n = 3
	for _, size := range []int{1, 2, 4, 5} {
		for _, root := range rootsFor(size) {
			t.Run(fmt.Sprintf("size=%d root=%d", size, root), func(t *testing.T) {
				err := Launch(size, func(c *Comm) {
					var src []float64
					if c.Rank() == root {
						src = make([]float64, n*size)
						for i := range src {
							src[i] = float64(i)
						}
					}
					dst := make([]float64, n)
					if err := c.Scatter(dst, src, root); err != nil {
						t.Errorf("rank %d: %v", c.Rank(), err)
						return
					}
					for i := range dst {
						if want := float64(c.Rank()*n + i); dst[i] != want {
							t.Errorf("rank %d: dst[%d] = %v, want %v", c.Rank(), i, dst[i], want)
						}
					}
				})
				if err != nil {
					t.Fatalf("Launch failed: %v", err)
				}
			})
		}
	}
}

func TestScatterSrcTooShort(t *testing.T) {
	err := Launch(1, func(c *Comm) {
		_ = c.Scatter(make([]float64, 4), []float64{1, 2}, 0)
	})
	if err == nil || !strings.Contains(err.Error(), "scatter needs src") {
		t.Fatalf("Launch = %v, want scatter length error", err)
	}
}

func TestAllgather(t *testing.T) {
	const n = 2
	for _, size := range []int{1, 2, 3, 5, 8} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			err := Launch(size, func(c *Comm) {
				src := []float64{float64(c.Rank() * 10), float64(c.Rank()*10 + 1)}
				dst := make([]float64, n*size)
				if err := c.Allgather(dst, src); err != nil {
					t.Errorf("rank %d: %v", c.Rank(), err)
					return
				}
				for rank := 0; rank < size; rank++ {
					for i := 0; i < n; i++ {
						if want := float64(rank*10 + i); dst[rank*n+i] != want {
							t.Errorf("rank %d: block %d[%d] = %v, want %v", c.Rank(), rank, i, dst[rank*n+i], want)
						}
					}
				}
			})
			if err != nil {
				t.Fatalf("Launch failed: %v", err)
			}
		})
	}
}

// A rank that skips a collective stalls everyone else; the watchdog
// must name the stuck rank and the reserved tag it was waiting on.
func TestMismatchedCollectiveIsCaught(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := LaunchContext(ctx, 2, func(c *Comm) {
		if c.Rank() == 0 {
			_ = c.Barrier()
		}
	})
	if err == nil {
		t.Fatal("mismatched collective returned nil error")
	}
	if !strings.Contains(err.Error(), "rank 0: blocked receiving from 1 tag -1") {
		t.Errorf("error %q does not name the blocked barrier", err)
	}
}
