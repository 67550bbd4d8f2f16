//go:build linux

package hw

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	procCPUInfo  = "/proc/cpuinfo"
	sysNodesPath = "/sys/devices/system/node"
	sysCacheLine = "/sys/devices/system/cpu/cpu0/cache/index0/coherency_line_size"
)

// fillPlatform probes procfs and sysfs. Missing or malformed entries are
// skipped; Detect applies defaults afterwards.
func fillPlatform(info *Info) {
	parseCPUInfo(info)

	if data, err := os.ReadFile(sysCacheLine); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && n > 0 {
			info.CacheLineBytes = n
		}
	}

	info.NUMANodes = discoverNodes()
}

// parseCPUInfo extracts the model name, feature flags, and core/socket
// counts from /proc/cpuinfo.
func parseCPUInfo(info *Info) {
	data, err := os.ReadFile(procCPUInfo)
	if err != nil {
		return
	}

	type coreKey struct{ physical, core string }
	cores := map[coreKey]bool{}
	sockets := map[string]bool{}
	var physical, core string

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "model name": // x86
			if info.ModelName == "" {
				info.ModelName = value
			}
		case "flags", "Features": // x86 / arm64
			if len(info.Features) == 0 {
				info.Features = strings.Fields(value)
			}
		case "physical id":
			physical = value
			sockets[value] = true
		case "core id":
			core = value
			cores[coreKey{physical, core}] = true
		}
	}

	if len(cores) > 0 {
		info.PhysicalCores = len(cores)
	}
	if len(sockets) > 0 {
		info.Sockets = len(sockets)
	}
}

// discoverNodes walks /sys/devices/system/node, reading each node's
// cpulist and MemTotal.
func discoverNodes() []Node {
	entries, _ := filepath.Glob(filepath.Join(sysNodesPath, "node[0-9]*"))
	var nodes []Node
	for _, entry := range entries {
		idStr := strings.TrimPrefix(filepath.Base(entry), "node")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}

		node := Node{ID: id}
		if data, err := os.ReadFile(filepath.Join(entry, "cpulist")); err == nil {
			if cpus, err := ParseCPUList(strings.TrimSpace(string(data))); err == nil {
				node.CPUs = cpus
			}
		}
		node.MemTotalBytes = readNodeMemTotal(filepath.Join(entry, "meminfo"))
		nodes = append(nodes, node)
	}
	return nodes
}

// readNodeMemTotal extracts the MemTotal line from a node's meminfo,
// e.g. "Node 0 MemTotal:       32768 kB".
func readNodeMemTotal(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[len(fields)-2], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}
