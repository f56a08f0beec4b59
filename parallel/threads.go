// Package parallel contains the parallel ForEach() loop and CPU detection used to size worker pools.
package parallel

import "runtime"
import "strings"

import "github.com/klauspost/cpuid/v2"

// Threads reports how many worker goroutines to start: the logical core count
// reported by cpuid, capped by GOMAXPROCS.
func Threads() int {
	var n = cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if max := runtime.GOMAXPROCS(0); n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Features lists the vector instruction sets the CPU supports, for the startup log line.
func Features() string {
	var o []string
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.SSE4, "SSE4.1"},
		{cpuid.SSE42, "SSE4.2"},
		{cpuid.AVX, "AVX"},
		{cpuid.AVX2, "AVX2"},
		{cpuid.FMA3, "FMA"},
		{cpuid.AVX512F, "AVX512F"},
		{cpuid.ASIMD, "ASIMD"},
	} {
		if cpuid.CPU.Supports(f.id) {
			o = append(o, f.name)
		}
	}
	if len(o) == 0 {
		return "none"
	}
	return strings.Join(o, " ")
}

// Brand returns the CPU brand string
func Brand() string {
	if cpuid.CPU.BrandName == "" {
		return runtime.GOARCH
	}
	return cpuid.CPU.BrandName
}
