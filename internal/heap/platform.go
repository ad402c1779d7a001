package heap

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// PlatformStats reports the hosted build's stand-in for the constrained
// target's "free heap bytes" REPL line: Go's own runtime heap figures
// plus, when available, the host's free system memory.
type PlatformStats struct {
	GoHeapAllocBytes uint64
	GoHeapSysBytes    uint64
	SystemFreeBytes   uint64
	SystemUsedPercent float64
}

// ReadPlatformStats samples runtime.MemStats and, best-effort, the host's
// virtual memory counters. A gopsutil failure (e.g. an unsupported or
// sandboxed platform) degrades to the Go-only figures rather than erroring
// the REPL iteration.
func ReadPlatformStats() PlatformStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := PlatformStats{
		GoHeapAllocBytes: ms.HeapAlloc,
		GoHeapSysBytes:   ms.HeapSys,
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.SystemFreeBytes = vm.Free
		stats.SystemUsedPercent = vm.UsedPercent
	}

	return stats
}
