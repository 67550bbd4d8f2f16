// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package bench

import (
	"github.com/parlab-go/parlab/internal/bench"
)

// Type aliases for public API

// Result is one measurement row: what ran, how big, how fast, and
// whether the answer checked out.
type Result = bench.Result

// Suite collects results along with the hardware they were measured
// on. The runner methods (RunCounters, RunVec, RunMatMul,
// RunPhilosophers, RunAllreduce) each append their rows.
type Suite = bench.Suite

// Config selects which suites run and how hard.
type Config = bench.Config

// Config sections.
type (
	CountersConfig     = bench.CountersConfig
	VecConfig          = bench.VecConfig
	MatMulConfig       = bench.MatMulConfig
	PhilosophersConfig = bench.PhilosophersConfig
	AllreduceConfig    = bench.AllreduceConfig
)

// NewSuite probes the host and stamps the start time.
func NewSuite(title string) *Suite {
	return bench.NewSuite(title)
}

// DefaultConfig is the full suite at demo-sized inputs.
func DefaultConfig() Config {
	return bench.DefaultConfig()
}

// LoadConfig reads a TOML suite file over the defaults. An empty path
// is the default suite; keys the file omits keep their defaults.
func LoadConfig(path string) (Config, error) {
	return bench.LoadConfig(path)
}

// Run executes every enabled section of cfg and returns the suite.
//
// Example:
//
//	cfg, err := bench.LoadConfig("suite.toml")
//	if err != nil {
//	    return err
//	}
//	s, err := bench.Run(cfg)
//	if err != nil {
//	    return err
//	}
//	s.Transcript(os.Stdout)
func Run(cfg Config) (*Suite, error) {
	return bench.Run(cfg)
}
