//go:build !linux

package hw

// fillPlatform has nothing to probe without procfs and sysfs; Detect
// falls back to runtime counts and a single synthetic NUMA node.
func fillPlatform(_ *Info) {}
