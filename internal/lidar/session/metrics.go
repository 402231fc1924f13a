package session

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/lidar2d/internal/lidar/l1packets"
)

const metricsNamespace = "lidar2d"

// metrics holds the per-collector counters. Each collector owns its registry
// so several collectors (or tests) never collide on registration.
type metrics struct {
	registry *prometheus.Registry

	packetsDecoded  prometheus.Counter
	shortReads      prometheus.Counter
	scanLimits      prometheus.Counter
	idleReads       prometheus.Counter
	invalidHeaders  prometheus.Counter
	bytesDiscarded  prometheus.Counter
	samplesAccepted prometheus.Counter
	samplesRejected prometheus.Counter

	lastDiscarded uint64
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	})
}

func newMetrics() *metrics {
	m := &metrics{
		registry:        prometheus.NewRegistry(),
		packetsDecoded:  newCounter("packets_decoded_total", "Packets framed and decoded."),
		shortReads:      newCounter("short_reads_total", "Headers whose payload arrived incomplete."),
		scanLimits:      newCounter("scan_limits_total", "Header scans abandoned at the scan bound."),
		idleReads:       newCounter("idle_reads_total", "Header scans ended by a read timeout with no data."),
		invalidHeaders:  newCounter("invalid_headers_total", "Candidate packets rejected by the decoder."),
		bytesDiscarded:  newCounter("bytes_discarded_total", "Bytes skipped while resynchronising."),
		samplesAccepted: newCounter("samples_accepted_total", "Points kept by the max-radius filter."),
		samplesRejected: newCounter("samples_rejected_total", "Points dropped by the max-radius filter."),
	}
	m.registry.MustRegister(
		m.packetsDecoded,
		m.shortReads,
		m.scanLimits,
		m.idleReads,
		m.invalidHeaders,
		m.bytesDiscarded,
		m.samplesAccepted,
		m.samplesRejected,
	)
	return m
}

// observeRetry counts a per-packet error the session skips past.
func (m *metrics) observeRetry(err error) {
	switch {
	case errors.Is(err, l1packets.ErrShortRead):
		m.shortReads.Inc()
	case errors.Is(err, l1packets.ErrScanLimit):
		m.scanLimits.Inc()
	case errors.Is(err, l1packets.ErrIdle):
		m.idleReads.Inc()
	case errors.Is(err, l1packets.ErrInvalidHeader):
		m.invalidHeaders.Inc()
	}
}

// observeSync folds the synchronizer's discarded-byte count into the counter.
func (m *metrics) observeSync(st l1packets.SyncStats) {
	if st.BytesDiscarded > m.lastDiscarded {
		m.bytesDiscarded.Add(float64(st.BytesDiscarded - m.lastDiscarded))
	}
	m.lastDiscarded = st.BytesDiscarded
}
