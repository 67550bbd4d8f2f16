// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package hw probes the hardware the labs run on.
//
// # Overview
//
// Parallel performance is a hardware story: how many cores, how they share
// caches, and which memory is close to which socket. Detect gathers that
// picture from procfs and sysfs on Linux and degrades to runtime counts
// elsewhere:
//
//	info := hw.Detect()
//	fmt.Print(info)
//
// prints the block shown by `parlab info`:
//
//	cpu:        AMD EPYC 7B13 64-Core Processor (linux/amd64)
//	topology:   16 logical cpus, 8 cores, 1 socket(s)
//	cache line: 64 bytes
//	numa:       node0 cpus=0-15 mem=62.8 GiB
//	features:   sse2 sse4_2 avx avx2 fma (118 flags total)
//
// HasFeature answers ISA questions ("can this box do avx512f?"), and the
// NUMANodes list shows where memory latency stops being uniform.
package hw
