// Package metrics supplements rv32spin with an optional live stats
// dashboard, the way the teacher's own go-echarts/statsview dependency
// supplements Gopher2600. Nothing in timeline/cpu/board calls into this
// package; a driver wires a Dashboard in from the outside by polling
// Simulator.Inspect(), so a headless build never pays for it.
//
// Grounded on SPEC_FULL.md §15: exposes mcycle, minstret, the current
// StateIndex, timeline length, and allocator snapshot count as gauges on
// statsview's dashboard, alongside its built-in goroutine/heap/GC charts.
package metrics

import (
	"fmt"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Source supplies the gauges a Dashboard publishes. Each field is a
// cheap, side-effect-free read; Dashboard polls them on statsview's own
// schedule, not the simulator's tick loop.
type Source struct {
	MCycle         func() uint64
	MInstret       func() uint64
	StateIndex     func() uint64
	TimelineLength func() int
	SnapshotCount  func() int
}

// Dashboard serves a statsview page exposing a Source's gauges alongside
// the library's built-in runtime charts.
type Dashboard struct {
	mgr  *statsview.Manager
	addr string
}

// NewDashboard registers src's gauges as statsview func-metrics and
// returns a Dashboard bound to the given "host:port" address. Call Start
// to begin serving; it blocks, so run it in its own goroutine.
func NewDashboard(src Source, addr string) *Dashboard {
	if src.MCycle != nil {
		viewer.AddFuncMetric("rv32spin.mcycle", "rv32spin", func() float64 {
			return float64(src.MCycle())
		})
	}
	if src.MInstret != nil {
		viewer.AddFuncMetric("rv32spin.minstret", "rv32spin", func() float64 {
			return float64(src.MInstret())
		})
	}
	if src.StateIndex != nil {
		viewer.AddFuncMetric("rv32spin.state_index", "rv32spin", func() float64 {
			return float64(src.StateIndex())
		})
	}
	if src.TimelineLength != nil {
		viewer.AddFuncMetric("rv32spin.timeline_length", "rv32spin", func() float64 {
			return float64(src.TimelineLength())
		})
	}
	if src.SnapshotCount != nil {
		viewer.AddFuncMetric("rv32spin.snapshot_count", "rv32spin", func() float64 {
			return float64(src.SnapshotCount())
		})
	}

	return &Dashboard{mgr: statsview.New(viewer.WithAddr(addr)), addr: addr}
}

// Start serves the dashboard until the process exits; statsview has no
// graceful-shutdown hook of its own, so this simply blocks.
func (d *Dashboard) Start() error {
	return d.mgr.Start()
}

// URL returns the dashboard's page address, for logging at startup.
func (d *Dashboard) URL() string {
	return fmt.Sprintf("http://%s/debug/statsview", d.addr)
}
