package mpi

import (
	"fmt"

	"github.com/parlab-go/parlab/internal/vec"
)

// apply combines in into acc elementwise. Sum and prod run through the
// vec kernels; max and min are plain loops.
func (op Op) apply(acc, in []float64) {
	switch op {
	case OpSum:
		vec.Add(acc, acc, in)
	case OpProd:
		vec.Mul(acc, acc, in)
	case OpMax:
		for i := range acc {
			if in[i] > acc[i] {
				acc[i] = in[i]
			}
		}
	case OpMin:
		for i := range acc {
			if in[i] < acc[i] {
				acc[i] = in[i]
			}
		}
	default:
		panic(fmt.Sprintf("mpi: unknown reduction op %d", op))
	}
}

// mod is the positive modulus for ring arithmetic.
func mod(a, size int) int {
	return ((a % size) + size) % size
}

func (c *Comm) checkRoot(root int) error {
	if root < 0 || root >= c.w.size {
		return c.fail(fmt.Errorf("mpi: rank %d: root %d outside world of size %d", c.rank, root, c.w.size))
	}
	return nil
}

// Barrier blocks until every rank has entered it. Dissemination
// algorithm: in round r each rank signals the rank 2^r ahead and waits
// for the rank 2^r behind, so log2(size) rounds close the barrier.
func (c *Comm) Barrier() error {
	size := c.w.size
	for mask := 1; mask < size; mask <<= 1 {
		to := (c.rank + mask) % size
		from := (c.rank - mask + size) % size
		if err := c.send(to, message{tag: tagBarrier, kind: kindF64}); err != nil {
			return err
		}
		if _, err := c.recv(from, tagBarrier); err != nil {
			return err
		}
	}
	return nil
}

// Bcast copies root's buf to every rank's buf along a binomial tree:
// the set of ranks holding the data doubles each stage.
func (c *Comm) Bcast(buf []float64, root int) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}
	size := c.w.size
	vr := (c.rank - root + size) % size

	for mask := 1; mask < size; mask <<= 1 {
		if vr < mask {
			partner := vr | mask
			if partner < size {
				if err := c.sendF64((partner+root)%size, tagBcast, buf); err != nil {
					return err
				}
			}
		} else if vr < mask<<1 {
			partner := (vr ^ mask) + root
			data, err := c.recvF64(partner%size, tagBcast)
			if err != nil {
				return err
			}
			if len(data) != len(buf) {
				return c.fail(fmt.Errorf("mpi: rank %d: bcast buffer length mismatch: have %d, received %d", c.rank, len(buf), len(data)))
			}
			copy(buf, data)
		}
	}
	return nil
}

// Reduce combines src across all ranks into dst at root, walking the
// binomial tree in reverse: each rank forwards its accumulator at the
// stage of its lowest set bit. Float sums may differ from a sequential
// loop by reassociation.
func (c *Comm) Reduce(dst, src []float64, op Op, root int) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}
	size := c.w.size
	vr := (c.rank - root + size) % size

	acc := make([]float64, len(src))
	copy(acc, src)

	for mask := 1; mask < size; mask <<= 1 {
		if vr&mask != 0 {
			parent := ((vr ^ mask) + root) % size
			return c.sendF64(parent, tagReduce, acc)
		}
		partner := vr | mask
		if partner < size {
			data, err := c.recvF64((partner+root)%size, tagReduce)
			if err != nil {
				return err
			}
			if len(data) != len(acc) {
				return c.fail(fmt.Errorf("mpi: rank %d: reduce buffer length mismatch: have %d, received %d", c.rank, len(acc), len(data)))
			}
			op.apply(acc, data)
		}
	}

	if len(dst) != len(src) {
		return c.fail(fmt.Errorf("mpi: rank %d: reduce needs dst of %d elements, have %d", c.rank, len(src), len(dst)))
	}
	copy(dst, acc)
	return nil
}

// Allreduce combines src across all ranks into every rank's dst using
// the ring schedule: a reduce-scatter pass leaves each rank with one
// fully combined chunk, then an allgather pass circulates the chunks.
// Each rank sends and receives 2*(size-1)/size of the data, which is
// the bandwidth-optimal total. Every rank combines each chunk in the
// same ring order, so all ranks produce bit-identical results.
func (c *Comm) Allreduce(dst, src []float64, op Op) error {
	if len(dst) != len(src) {
		return c.fail(fmt.Errorf("mpi: rank %d: allreduce needs dst of %d elements, have %d", c.rank, len(src), len(dst)))
	}
	copy(dst, src)

	size := c.w.size
	if size == 1 {
		return nil
	}
	n := len(src)
	right := (c.rank + 1) % size
	left := (c.rank - 1 + size) % size

	// Chunk ci covers [ci*n/size, (ci+1)*n/size), which balances the
	// remainder across chunks and degrades to empty chunks when
	// n < size.
	chunk := func(ci int) (lo, hi int) {
		return ci * n / size, (ci + 1) * n / size
	}

	// Reduce-scatter: after size-1 steps rank r owns the fully
	// combined chunk (r+1) mod size.
	for s := 0; s < size-1; s++ {
		lo, hi := chunk(mod(c.rank-s, size))
		if err := c.sendF64(right, tagAllreduce, dst[lo:hi]); err != nil {
			return err
		}
		data, err := c.recvF64(left, tagAllreduce)
		if err != nil {
			return err
		}
		lo, hi = chunk(mod(c.rank-s-1, size))
		if len(data) != hi-lo {
			return c.fail(fmt.Errorf("mpi: rank %d: allreduce chunk length mismatch: want %d, received %d", c.rank, hi-lo, len(data)))
		}
		op.apply(dst[lo:hi], data)
	}

	// Allgather: circulate the finished chunks once around the ring.
	for s := 0; s < size-1; s++ {
		lo, hi := chunk(mod(c.rank-s+1, size))
		if err := c.sendF64(right, tagAllreduce, dst[lo:hi]); err != nil {
			return err
		}
		data, err := c.recvF64(left, tagAllreduce)
		if err != nil {
			return err
		}
		lo, hi = chunk(mod(c.rank-s, size))
		if len(data) != hi-lo {
			return c.fail(fmt.Errorf("mpi: rank %d: allreduce chunk length mismatch: want %d, received %d", c.rank, hi-lo, len(data)))
		}
		copy(dst[lo:hi], data)
	}
	return nil
}

// Gather collects every rank's src into root's dst, laid out in rank
// order. Non-root ranks may pass a nil dst. All ranks must pass src
// slices of the same length.
func (c *Comm) Gather(dst, src []float64, root int) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}
	if c.rank != root {
		return c.sendF64(root, tagGather, src)
	}

	size := c.w.size
	n := len(src)
	if len(dst) != n*size {
		return c.fail(fmt.Errorf("mpi: rank %d: gather needs dst of %d elements, have %d", c.rank, n*size, len(dst)))
	}
	copy(dst[root*n:(root+1)*n], src)
	for r := 0; r < size; r++ {
		if r == root {
			continue
		}
		data, err := c.recvF64(r, tagGather)
		if err != nil {
			return err
		}
		if len(data) != n {
			return c.fail(fmt.Errorf("mpi: rank %d: gather block from rank %d has %d elements, want %d", c.rank, r, len(data), n))
		}
		copy(dst[r*n:(r+1)*n], data)
	}
	return nil
}

// Scatter distributes root's src to every rank's dst in rank order.
// Non-root ranks may pass a nil src. All ranks must pass dst slices of
// the same length.
func (c *Comm) Scatter(dst, src []float64, root int) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}
	size := c.w.size
	n := len(dst)

	if c.rank != root {
		data, err := c.recvF64(root, tagScatter)
		if err != nil {
			return err
		}
		if len(data) != n {
			return c.fail(fmt.Errorf("mpi: rank %d: scatter block has %d elements, want %d", c.rank, len(data), n))
		}
		copy(dst, data)
		return nil
	}

	if len(src) != n*size {
		return c.fail(fmt.Errorf("mpi: rank %d: scatter needs src of %d elements, have %d", c.rank, n*size, len(src)))
	}
	for r := 0; r < size; r++ {
		if r == root {
			continue
		}
		if err := c.sendF64(r, tagScatter, src[r*n:(r+1)*n]); err != nil {
			return err
		}
	}
	copy(dst, src[root*n:(root+1)*n])
	return nil
}

// Allgather collects every rank's src into every rank's dst in rank
// order, circulating blocks once around the ring. All ranks must pass
// src slices of the same length.
func (c *Comm) Allgather(dst, src []float64) error {
	size := c.w.size
	n := len(src)
	if len(dst) != n*size {
		return c.fail(fmt.Errorf("mpi: rank %d: allgather needs dst of %d elements, have %d", c.rank, n*size, len(dst)))
	}
	copy(dst[c.rank*n:(c.rank+1)*n], src)
	if size == 1 {
		return nil
	}

	right := (c.rank + 1) % size
	left := (c.rank - 1 + size) % size
	for s := 0; s < size-1; s++ {
		sendIdx := mod(c.rank-s, size)
		if err := c.sendF64(right, tagAllgather, dst[sendIdx*n:(sendIdx+1)*n]); err != nil {
			return err
		}
		data, err := c.recvF64(left, tagAllgather)
		if err != nil {
			return err
		}
		recvIdx := mod(c.rank-s-1, size)
		if len(data) != n {
			return c.fail(fmt.Errorf("mpi: rank %d: allgather block has %d elements, want %d", c.rank, len(data), n))
		}
		copy(dst[recvIdx*n:(recvIdx+1)*n], data)
	}
	return nil
}
