package main

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// statsReport measures a command run for -stats.
type statsReport struct {
	enabled bool
	start   time.Time
}

func newStatsReport(enabled bool) *statsReport {
	return &statsReport{enabled: enabled, start: time.Now()}
}

func (r *statsReport) print(w io.Writer, regions int) {
	if !r.enabled {
		return
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	fmt.Fprintf(w, "regions:        %d\n", regions)
	fmt.Fprintf(w, "elapsed:        %s\n", time.Since(r.start).Round(time.Millisecond))
	fmt.Fprintf(w, "heap allocated: %.1f MiB\n", float64(ms.HeapAlloc)/(1<<20))
	fmt.Fprintf(w, "total alloc:    %.1f MiB\n", float64(ms.TotalAlloc)/(1<<20))

	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(w, "system memory:  %.1f%% used of %.1f GiB\n", vm.UsedPercent, float64(vm.Total)/(1<<30))
	}
}
