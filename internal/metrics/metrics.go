// Package metrics exposes Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connection state and connect/reconnect/identify rates
//   - Event dispatch, unknown-kind, and handler-panic counts
//   - Archive writer throughput and buffer utilization
//
// Components are not coupled to Prometheus: the collector pulls their Stats()
// snapshots at scrape time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luminacrm/pulse/internal/connection"
	"github.com/luminacrm/pulse/internal/feed"
	"github.com/luminacrm/pulse/internal/router"
)

// ManagerStats is the manager surface the collector scrapes.
type ManagerStats interface {
	Stats() connection.ManagerStats
}

// DispatchStats is the dispatcher surface the collector scrapes.
type DispatchStats interface {
	Stats() router.DispatcherStats
}

// ArchiveStats is the archive writer surface the collector scrapes.
type ArchiveStats interface {
	Stats() feed.WriterMetrics
}

// Collector converts component stats snapshots into Prometheus metrics at
// scrape time. Nil sources are skipped.
type Collector struct {
	manager  ManagerStats
	dispatch DispatchStats
	archive  ArchiveStats

	connState      *prometheus.Desc
	connects       *prometheus.Desc
	reconnects     *prometheus.Desc
	identifies     *prometheus.Desc
	connectErrs    *prometheus.Desc
	drops          *prometheus.Desc
	dispatched     *prometheus.Desc
	unknown        *prometheus.Desc
	handlerPanics  *prometheus.Desc
	archiveRows    *prometheus.Desc
	archiveErrors  *prometheus.Desc
	archiveFlushes *prometheus.Desc
}

// NewCollector creates a collector over the given stat sources.
func NewCollector(manager ManagerStats, dispatch DispatchStats, archive ArchiveStats) *Collector {
	return &Collector{
		manager:  manager,
		dispatch: dispatch,
		archive:  archive,

		connState: prometheus.NewDesc("pulse_connection_state",
			"Current connection state (0=disconnected 1=connecting 2=connected 3=identified 4=reconnecting)",
			nil, nil),
		connects: prometheus.NewDesc("pulse_connects_total",
			"Successful transport connects", nil, nil),
		reconnects: prometheus.NewDesc("pulse_reconnects_total",
			"Reconnection cycles entered", nil, nil),
		identifies: prometheus.NewDesc("pulse_identify_total",
			"Identify handshakes sent", nil, nil),
		connectErrs: prometheus.NewDesc("pulse_connect_errors_total",
			"Failed connect attempts", nil, nil),
		drops: prometheus.NewDesc("pulse_connection_drops_total",
			"Transport drops after a successful connect", nil, nil),
		dispatched: prometheus.NewDesc("pulse_events_dispatched_total",
			"Events dispatched to a handler", []string{"kind"}, nil),
		unknown: prometheus.NewDesc("pulse_events_unknown_total",
			"Events with no registered handler", nil, nil),
		handlerPanics: prometheus.NewDesc("pulse_handler_panics_total",
			"Handler invocations that panicked", nil, nil),
		archiveRows: prometheus.NewDesc("pulse_archive_rows_total",
			"Notification rows inserted", nil, nil),
		archiveErrors: prometheus.NewDesc("pulse_archive_errors_total",
			"Archive batch insert failures", nil, nil),
		archiveFlushes: prometheus.NewDesc("pulse_archive_flushes_total",
			"Archive batch flushes", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connState
	ch <- c.connects
	ch <- c.reconnects
	ch <- c.identifies
	ch <- c.connectErrs
	ch <- c.drops
	ch <- c.dispatched
	ch <- c.unknown
	ch <- c.handlerPanics
	ch <- c.archiveRows
	ch <- c.archiveErrors
	ch <- c.archiveFlushes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.manager != nil {
		s := c.manager.Stats()
		ch <- prometheus.MustNewConstMetric(c.connState, prometheus.GaugeValue, float64(s.State))
		ch <- prometheus.MustNewConstMetric(c.connects, prometheus.CounterValue, float64(s.Connects))
		ch <- prometheus.MustNewConstMetric(c.reconnects, prometheus.CounterValue, float64(s.Reconnects))
		ch <- prometheus.MustNewConstMetric(c.identifies, prometheus.CounterValue, float64(s.Identifies))
		ch <- prometheus.MustNewConstMetric(c.connectErrs, prometheus.CounterValue, float64(s.ConnectErrs))
		ch <- prometheus.MustNewConstMetric(c.drops, prometheus.CounterValue, float64(s.Drops))
	}

	if c.dispatch != nil {
		s := c.dispatch.Stats()
		for kind, n := range s.ByKind {
			ch <- prometheus.MustNewConstMetric(c.dispatched, prometheus.CounterValue, float64(n), string(kind))
		}
		ch <- prometheus.MustNewConstMetric(c.unknown, prometheus.CounterValue, float64(s.Unknown))
		ch <- prometheus.MustNewConstMetric(c.handlerPanics, prometheus.CounterValue, float64(s.Panics))
	}

	if c.archive != nil {
		s := c.archive.Stats()
		ch <- prometheus.MustNewConstMetric(c.archiveRows, prometheus.CounterValue, float64(s.Inserts))
		ch <- prometheus.MustNewConstMetric(c.archiveErrors, prometheus.CounterValue, float64(s.Errors))
		ch <- prometheus.MustNewConstMetric(c.archiveFlushes, prometheus.CounterValue, float64(s.Flushes))
	}
}
