// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mpi is the message-passing lab: SPMD programs over ranks
// that share nothing and communicate explicitly, the model behind MPI
// clusters, scaled down to goroutines in one process.
//
// # The world
//
// Launch starts size ranks, each running the same function with its
// own Comm. A rank learns its place from Rank and Size and decides its
// work from those two numbers alone. There is no shared memory between
// ranks; data moves only through Send, Recv, and the collectives.
//
// # Point to point
//
// Send and Recv move float64 slices between rank pairs. Messages
// between one (source, destination, tag) triple arrive in send order,
// and a receive for a tag parks messages with other tags until a
// matching receive shows up. Sends complete eagerly while the link has
// buffer room and block rendezvous-style once it fills.
//
// # Collectives
//
// The collectives are the real algorithms, not shortcuts through
// shared memory: Barrier disseminates in log2(size) rounds, Bcast and
// Reduce walk binomial trees, and Allreduce runs the bandwidth-optimal
// ring schedule whose result is bit-identical on every rank. Gather,
// Scatter, and Allgather move blocks in rank order. Every rank must
// call each collective in the same order, like real MPI.
//
// # Deadlocks
//
// A mismatched send, receive, or collective deadlocks. LaunchContext
// bounds a run with a context; when it expires, every blocked
// operation returns an error naming its rank, its peer, and the tag it
// was stuck on, which turns a hang into a readable diagnosis.
package mpi
