// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cluster

import (
	"log/slog"

	"github.com/parlab-go/parlab/internal/cluster"
)

// Type aliases for public API

// Job is one distributed computation: a name for the wire, a Map that
// runs on workers, and a Reduce that folds partials on the master.
type Job = cluster.Job

// Input is the job's work, one payload per shard.
type Input = cluster.Input

// Output is the reduced result of a job.
type Output = cluster.Output

// Master owns the worker pool and dispatches shards.
type Master = cluster.Master

// Worker executes shards for one master.
type Worker = cluster.Worker

// Option configures a Master.
type Option = cluster.Option

// WorkerOption configures a Worker.
type WorkerOption = cluster.WorkerOption

// Status is the master's /status document.
type Status = cluster.Status

// WorkerStatus is one connected worker in Status.
type WorkerStatus = cluster.WorkerStatus

// WordCount counts words per shard and merges the counts. It is
// pre-registered.
type WordCount = cluster.WordCount

// TokenCount counts cl100k_base BPE tokens per shard.
type TokenCount = cluster.TokenCount

// Register makes job callable by name on this process. Workers must
// register a job before the master may assign it to them.
func Register(job Job) error { return cluster.Register(job) }

// NewMaster configures a master for addr, e.g. ":8077". Call Start on
// it to bind, then Run to dispatch a job.
func NewMaster(addr string, opts ...Option) *Master {
	return cluster.NewMaster(addr, opts...)
}

// NewWorker configures a worker for one master endpoint, e.g.
// "ws://127.0.0.1:8077/ws". Run connects and serves until the master
// drains it, the connection drops, or the context is canceled.
func NewWorker(masterURL string, opts ...WorkerOption) *Worker {
	return cluster.NewWorker(masterURL, opts...)
}

// NewTokenCount loads the cl100k_base encoding. The first load fetches
// the BPE ranks, so it can fail without network access.
func NewTokenCount() (*TokenCount, error) { return cluster.NewTokenCount() }

// RunLocal runs job over input with an in-process master and workers
// wired over loopback websockets.
//
// Example:
//
//	out, err := cluster.RunLocal(cluster.WordCount{},
//	    cluster.TextShards(text, 8), 4)
func RunLocal(job Job, input Input, workers int) (Output, error) {
	return cluster.RunLocal(job, input, workers)
}

// TextShards cuts text into at most n shards on whitespace, so no word
// is ever split across shards.
func TextShards(text []byte, n int) Input { return cluster.TextShards(text, n) }

// DecodeCounts reads a count-map output, as produced by WordCount and
// TokenCount.
func DecodeCounts(out Output) (map[string]int, error) { return cluster.DecodeCounts(out) }

// TopCounts returns the n most frequent keys, most frequent first and
// ties alphabetical.
func TopCounts(counts map[string]int, n int) []string { return cluster.TopCounts(counts, n) }

// TotalTokens sums a TokenCount output into one number.
func TotalTokens(out Output) (int, error) { return cluster.TotalTokens(out) }

// Functional options

// WithLogger routes the master's lifecycle logging.
func WithLogger(log *slog.Logger) Option { return cluster.WithLogger(log) }

// WithMaxAttempts overrides how often a shard may be tried before the
// job fails. The default is 3.
func WithMaxAttempts(n int) Option { return cluster.WithMaxAttempts(n) }

// WithWorkerLogger routes the worker's lifecycle logging.
func WithWorkerLogger(log *slog.Logger) WorkerOption { return cluster.WithWorkerLogger(log) }

// WithCores overrides how many tasks a worker runs concurrently. The
// default is runtime.NumCPU.
func WithCores(n int) WorkerOption { return cluster.WithCores(n) }
