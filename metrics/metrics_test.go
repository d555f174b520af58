package metrics

import (
	"testing"

	"rv32spin/test"
)

func TestNewDashboardURL(t *testing.T) {
	d := NewDashboard(Source{
		MCycle:   func() uint64 { return 42 },
		MInstret: func() uint64 { return 7 },
	}, "127.0.0.1:18081")
	test.ExpectEquality(t, d.URL(), "http://127.0.0.1:18081/debug/statsview")
}

func TestNewDashboardToleratesNilGauges(t *testing.T) {
	d := NewDashboard(Source{}, "127.0.0.1:18082")
	test.ExpectTrue(t, d != nil, "dashboard constructed with no gauges wired")
}
