// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cluster is the distributed-computing lab: map-reduce over
// real processes that share nothing and talk through a versioned JSON
// protocol, the shape of Hadoop or Spark boiled down to one master and
// a handful of workers.
//
// # Jobs
//
// A Job names itself and brings two functions. Map turns one input
// shard into a partial result on whatever worker the shard lands on;
// Reduce folds the partials, delivered in shard order, into the final
// output on the master. Jobs must be registered on every process that
// runs them, since the wire carries job names, not code. WordCount
// registers itself; TokenCount runs a real BPE tokenizer over its
// shards and must be constructed with NewTokenCount first.
//
// # Master and workers
//
// The master listens for workers on a websocket endpoint and serves a
// JSON snapshot of the cluster on /status. Workers dial in, announce
// how many tasks they can hold, and execute whatever the master
// assigns. Shards go out round-robin, one result per attempt; a shard
// whose worker fails or disconnects is reassigned until it runs out of
// attempts, at which point the whole job fails with that shard's last
// error. Late replies from presumed-dead workers are recognized by
// attempt ID and dropped.
//
// # Local harness
//
// RunLocal spins up a master and n workers inside one process, wired
// over loopback. The full protocol and scheduler run; only the network
// is synthetic. It is the quickest way to smoke-test a Job before
// spreading it across machines.
package cluster
