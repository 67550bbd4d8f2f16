// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package bench_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlab-go/parlab/bench"
)

func tinyConfig() bench.Config {
	cfg := bench.DefaultConfig()
	cfg.Title = "tiny suite"
	cfg.Reps = 1
	cfg.Counters.N = 100
	cfg.Counters.Workers = 1
	cfg.Vec.Sizes = []int{64}
	cfg.MatMul.Sizes = []int{8}
	cfg.MatMul.WebGPU = false
	cfg.Philosophers.Meals = 10
	cfg.Philosophers.Timeout = "300ms"
	cfg.Allreduce.Ranks = 2
	cfg.Allreduce.Sizes = []int{16}
	return cfg
}

func TestRunTinySuite(t *testing.T) {
	s, err := bench.Run(tinyConfig())
	require.NoError(t, err)
	require.NotEmpty(t, s.Results)

	for _, r := range s.Results {
		assert.True(t, r.Correct, "%s: %+v", r.Name, r)
	}
	assert.Equal(t, "tiny suite", s.Title)
	assert.Greater(t, s.Hardware.LogicalCPUs, 0)
}

func TestTranscriptAndJSON(t *testing.T) {
	s, err := bench.Run(tinyConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	s.Transcript(&buf)
	assert.Contains(t, buf.String(), "tiny suite")
	assert.Contains(t, buf.String(), "counters/atomic")

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, s.WriteJSON(path))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := bench.LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Counters.Enabled)
	assert.NotEmpty(t, cfg.Vec.Sizes)
}
