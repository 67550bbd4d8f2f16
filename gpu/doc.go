// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gpu is the offload lab: a device abstraction with explicit
// buffers and transfers, a host reference device, and a WebGPU backend
// running WGSL compute kernels.
//
// # Overview
//
// A Device owns opaque Buffers and runs three kernels over them: saxpy,
// matrix multiply, and sum reduction. Uploads and downloads are explicit
// so the host/device copy cost stays visible in every program:
//
//	dev := gpu.NewCPU()
//	x, _ := dev.Alloc(1024)
//	y, _ := dev.Alloc(1024)
//	dev.Upload(x, xs)
//	dev.Upload(y, ys)
//	dev.Saxpy(2.0, x, y, 1024)
//	dev.Download(ys, y)
//
// # Devices
//
// NewCPU returns the host reference device; every kernel result from a
// GPU backend is checked against it. NewWebGPU initializes the WebGPU
// backend, which compiles the WGSL kernels once and caches the
// pipelines. The backend needs the native wgpu library; call
// WebGPUAvailable before relying on it and fall back to the cpu device
// when it reports false.
//
// The WGSL kernels dispatch one thread per output element. The same
// program runs across the whole grid and each thread picks its work
// from its global invocation id, which is the SPMD shape GPU code
// takes regardless of API.
package gpu
