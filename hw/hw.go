// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package hw

import (
	"github.com/parlab-go/parlab/internal/hw"
)

// Info describes the host the process runs on.
type Info = hw.Info

// Node is one NUMA node: a set of CPUs with locally attached memory.
type Node = hw.Node

// Detect gathers hardware information. It never fails.
func Detect() Info {
	return hw.Detect()
}

// ParseCPUList parses the kernel's cpulist form, e.g. "0-3,8-11".
func ParseCPUList(s string) ([]int, error) {
	return hw.ParseCPUList(s)
}

// FormatCPUList renders CPU IDs in the kernel's cpulist form.
func FormatCPUList(cpus []int) string {
	return hw.FormatCPUList(cpus)
}
