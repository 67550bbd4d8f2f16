package bench

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config selects which suites run and how hard. Keys a TOML file omits
// keep their defaults.
type Config struct {
	Title string `toml:"title"`
	Reps  int    `toml:"reps"`
	JSON  string `toml:"json"`

	Counters     CountersConfig     `toml:"counters"`
	Vec          VecConfig          `toml:"vec"`
	MatMul       MatMulConfig       `toml:"matmul"`
	Philosophers PhilosophersConfig `toml:"philosophers"`
	Allreduce    AllreduceConfig    `toml:"allreduce"`
}

// CountersConfig drives the shared-counter race table.
type CountersConfig struct {
	Enabled bool `toml:"enabled"`
	N       int  `toml:"n"`
	Workers int  `toml:"workers"`
}

// VecConfig drives the vector-kernel table.
type VecConfig struct {
	Enabled bool  `toml:"enabled"`
	Sizes   []int `toml:"sizes"`
}

// MatMulConfig drives the device matmul table.
type MatMulConfig struct {
	Enabled bool  `toml:"enabled"`
	Sizes   []int `toml:"sizes"`
	WebGPU  bool  `toml:"webgpu"`
}

// PhilosophersConfig drives the dining table.
type PhilosophersConfig struct {
	Enabled bool   `toml:"enabled"`
	Seats   int    `toml:"seats"`
	Meals   int    `toml:"meals"`
	Timeout string `toml:"timeout"`
}

// AllreduceConfig drives the message-passing table.
type AllreduceConfig struct {
	Enabled bool  `toml:"enabled"`
	Ranks   int   `toml:"ranks"`
	Sizes   []int `toml:"sizes"`
}

// DefaultConfig is the full suite at demo-sized inputs.
func DefaultConfig() Config {
	return Config{
		Title: "parlab bench",
		Reps:  defaultReps,
		Counters: CountersConfig{
			Enabled: true,
			N:       1 << 20,
			Workers: runtime.NumCPU(),
		},
		Vec: VecConfig{
			Enabled: true,
			Sizes:   []int{1 << 10, 1 << 16, 1 << 20},
		},
		MatMul: MatMulConfig{
			Enabled: true,
			Sizes:   []int{64, 128, 256},
			WebGPU:  true,
		},
		Philosophers: PhilosophersConfig{
			Enabled: true,
			Seats:   5,
			Meals:   200,
			Timeout: "2s",
		},
		Allreduce: AllreduceConfig{
			Enabled: true,
			Ranks:   8,
			Sizes:   []int{1 << 10, 1 << 16},
		},
	}
}

// LoadConfig reads a TOML suite file over the defaults. An empty path
// is the default suite.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("bench: read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("bench: parse config %s: %w", path, err)
	}
	if _, err := cfg.philosophersTimeout(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// philosophersTimeout parses the dining deadline, defaulting when the
// config leaves it empty.
func (c Config) philosophersTimeout() (time.Duration, error) {
	if c.Philosophers.Timeout == "" {
		return 2 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Philosophers.Timeout)
	if err != nil {
		return 0, fmt.Errorf("bench: philosophers timeout %q: %w", c.Philosophers.Timeout, err)
	}
	return d, nil
}
