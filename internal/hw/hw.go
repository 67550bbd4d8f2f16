// Package hw probes the hardware topology the other labs run on: logical
// and physical CPU counts, NUMA nodes, cache line size, and ISA features.
package hw

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Node is one NUMA node: a set of CPUs with locally attached memory.
type Node struct {
	ID            int
	CPUs          []int
	MemTotalBytes int64
}

// Info describes the host the process runs on.
type Info struct {
	OS             string
	Arch           string
	LogicalCPUs    int
	PhysicalCores  int
	Sockets        int
	ModelName      string
	Features       []string
	CacheLineBytes int
	NUMANodes      []Node
}

// Detect gathers hardware information. It never fails: fields that cannot
// be probed on this platform degrade to runtime counts and defaults.
func Detect() Info {
	info := Info{
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		LogicalCPUs:    runtime.NumCPU(),
		CacheLineBytes: 64,
	}

	fillPlatform(&info)

	if info.PhysicalCores == 0 {
		info.PhysicalCores = info.LogicalCPUs
	}
	if info.Sockets == 0 {
		info.Sockets = 1
	}
	if info.ModelName == "" {
		info.ModelName = runtime.GOARCH
	}
	if len(info.NUMANodes) == 0 {
		// Single synthetic node covering every CPU.
		cpus := make([]int, info.LogicalCPUs)
		for i := range cpus {
			cpus[i] = i
		}
		info.NUMANodes = []Node{{ID: 0, CPUs: cpus}}
	}
	return info
}

// HasFeature reports whether the CPU advertises the named ISA feature
// (as spelled in /proc/cpuinfo, e.g. "avx2", "sve").
func (i Info) HasFeature(name string) bool {
	for _, f := range i.Features {
		if f == name {
			return true
		}
	}
	return false
}

// interestingFeatures is the subset worth printing; the full flag list on
// x86 runs past a hundred entries.
var interestingFeatures = []string{
	"sse2", "sse4_2", "avx", "avx2", "avx512f", "fma",
	"asimd", "neon", "sve", "sve2",
}

// String renders the transcript block printed by `parlab info`.
func (i Info) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "cpu:        %s (%s/%s)\n", i.ModelName, i.OS, i.Arch)
	fmt.Fprintf(&b, "topology:   %d logical cpus, %d cores, %d socket(s)\n",
		i.LogicalCPUs, i.PhysicalCores, i.Sockets)
	fmt.Fprintf(&b, "cache line: %d bytes\n", i.CacheLineBytes)

	for _, n := range i.NUMANodes {
		fmt.Fprintf(&b, "numa:       node%d cpus=%s", n.ID, FormatCPUList(n.CPUs))
		if n.MemTotalBytes > 0 {
			fmt.Fprintf(&b, " mem=%s", formatBytes(n.MemTotalBytes))
		}
		b.WriteByte('\n')
	}

	var shown []string
	for _, f := range interestingFeatures {
		if i.HasFeature(f) {
			shown = append(shown, f)
		}
	}
	if len(shown) > 0 {
		fmt.Fprintf(&b, "features:   %s (%d flags total)\n",
			strings.Join(shown, " "), len(i.Features))
	}
	return b.String()
}

// ParseCPUList parses the kernel's cpulist form, e.g. "0-3,8-11", into
// the individual CPU IDs.
func ParseCPUList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	var cpus []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("bad cpulist entry %q: %w", part, err)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("bad cpulist range %q: %w", part, err)
			}
		}
		if end < start {
			return nil, fmt.Errorf("bad cpulist range %q: end before start", part)
		}
		for c := start; c <= end; c++ {
			cpus = append(cpus, c)
		}
	}
	return cpus, nil
}

// FormatCPUList renders CPU IDs in the kernel's cpulist form, e.g.
// "0-3,8-11".
func FormatCPUList(cpus []int) string {
	if len(cpus) == 0 {
		return ""
	}

	sorted := append([]int(nil), cpus...)
	sort.Ints(sorted)

	var b strings.Builder
	start, prev := sorted[0], sorted[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			fmt.Fprintf(&b, "%d", start)
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, c := range sorted[1:] {
		if c == prev+1 {
			prev = c
			continue
		}
		flush()
		start, prev = c, c
	}
	flush()
	return b.String()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
