// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mpi

import (
	"context"

	"github.com/parlab-go/parlab/internal/mpi"
)

// Type aliases for public API

// Comm is one rank's endpoint into the world. Every operation is a
// method on it. A Comm belongs to its rank's goroutine and must not be
// shared.
type Comm = mpi.Comm

// Op is a reduction operation applied elementwise across ranks.
type Op = mpi.Op

// Reduction operations.
const (
	OpSum  Op = mpi.OpSum
	OpProd Op = mpi.OpProd
	OpMax  Op = mpi.OpMax
	OpMin  Op = mpi.OpMin
)

// Root is the conventional coordinator rank.
const Root = mpi.Root

// Launch starts size ranks, each running main with its own Comm, and
// waits for all of them. It returns the errors the ranks recorded,
// joined in rank order.
//
// Example:
//
//	err := mpi.Launch(4, func(c *mpi.Comm) {
//	    local := []float64{float64(c.Rank())}
//	    total := make([]float64, 1)
//	    c.Allreduce(total, local, mpi.OpSum)
//	    c.Printf("sum of ranks: %v\n", total[0])
//	})
func Launch(size int, main func(c *Comm)) error {
	return mpi.Launch(size, main)
}

// LaunchContext is Launch with a context. When ctx expires, every
// blocked operation returns an error naming its rank, peer, and tag,
// so a deadlocked run reports who was stuck waiting for whom.
func LaunchContext(ctx context.Context, size int, main func(c *Comm)) error {
	return mpi.LaunchContext(ctx, size, main)
}
