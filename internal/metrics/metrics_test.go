package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luminacrm/pulse/internal/connection"
	"github.com/luminacrm/pulse/internal/router"
)

type fakeManager struct{ stats connection.ManagerStats }

func (f fakeManager) Stats() connection.ManagerStats { return f.stats }

type fakeDispatch struct{ stats router.DispatcherStats }

func (f fakeDispatch) Stats() router.DispatcherStats { return f.stats }

func TestCollectorRegisters(t *testing.T) {
	c := NewCollector(
		fakeManager{stats: connection.ManagerStats{State: connection.StateIdentified, Connects: 2}},
		fakeDispatch{stats: router.DispatcherStats{
			Dispatched: 5,
			Unknown:    1,
			ByKind:     map[router.Kind]int64{"new_lead": 3, "invoice_paid": 2},
		}},
		nil,
	)

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	fams, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	byName := map[string]bool{}
	for _, f := range fams {
		byName[f.GetName()] = true
	}

	for _, want := range []string{
		"pulse_connection_state",
		"pulse_connects_total",
		"pulse_events_dispatched_total",
		"pulse_events_unknown_total",
	} {
		if !byName[want] {
			t.Errorf("metric %s missing from gather output", want)
		}
	}

	// Nil archive source must not break gathering.
	if byName["pulse_archive_rows_total"] {
		t.Error("archive metrics should be absent when no archive source is wired")
	}
}
