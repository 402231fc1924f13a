// Package session drives one bounded LiDAR collection run: it owns the
// transport, pulls packets through the synchronizer and decoder, filters points
// by range and accumulates them for the consumers.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/lidar2d/internal/lidar/l1packets"
	"github.com/banshee-data/lidar2d/internal/lidar/l2frames"
	"github.com/banshee-data/lidar2d/internal/serialport"
	"github.com/banshee-data/lidar2d/internal/timeutil"
)

// Config describes one collection run.
type Config struct {
	Port        string
	PortOptions serialport.PortOptions
	// Duration bounds the run by wall-clock time. Zero runs until the
	// context is cancelled or the source ends.
	Duration time.Duration
	// MaxRadiusM drops points further than this. Zero keeps every point.
	MaxRadiusM float64
	// MaxScanReads bounds each header scan; see l1packets.WithMaxScanReads.
	MaxScanReads int
}

// FrameHandler receives every decoded frame, before radius filtering.
type FrameHandler func(l1packets.MeasurementFrame)

// Result is what a run produced. It is returned even when the run fails, so
// samples collected before a transport failure are not lost.
type Result struct {
	SessionID string
	StartedAt time.Time
	Elapsed   time.Duration
	Frames    int
	Samples   []l2frames.PolarSample
	Rejected  int
	// Cancelled is set when the context ended the run.
	Cancelled bool
	Sync      l1packets.SyncStats
}

// Collector runs collection sessions.
type Collector struct {
	cfg     Config
	factory serialport.Factory
	clock   timeutil.Clock
	onFrame FrameHandler
	metrics *metrics
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock replaces the wall clock used for the duration bound.
func WithClock(c timeutil.Clock) Option {
	return func(col *Collector) {
		col.clock = c
	}
}

// WithFrameHandler streams every decoded frame to h.
func WithFrameHandler(h FrameHandler) Option {
	return func(col *Collector) {
		col.onFrame = h
	}
}

// NewCollector creates a Collector that opens its transport through factory.
func NewCollector(cfg Config, factory serialport.Factory, opts ...Option) *Collector {
	c := &Collector{
		cfg:     cfg,
		factory: factory,
		clock:   timeutil.RealClock{},
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry exposes the collector's prometheus counters.
func (c *Collector) Registry() *prometheus.Registry {
	return c.metrics.registry
}

// WriteMetricsTextfile writes the counters in the node_exporter textfile
// format to path.
func (c *Collector) WriteMetricsTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.metrics.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Run opens the transport and collects until the configured duration
// elapses, ctx is cancelled, or a finite source is exhausted. The deadline and
// cancellation are checked once per packet and once per idle read timeout; a
// packet already being read completes first.
//
// The transport is closed exactly once on every path. Framing and decoding
// errors are absorbed. A transport failure ends the run and is returned as a
// *l1packets.TransportError together with the partial result.
func (c *Collector) Run(ctx context.Context) (res *Result, err error) {
	start := c.clock.Now()
	res = &Result{
		SessionID: uuid.NewString(),
		StartedAt: start,
	}

	port, err := c.factory.Open(c.cfg.Port, c.cfg.PortOptions)
	if err != nil {
		opsf("session %s: open %s: %v", res.SessionID, c.cfg.Port, err)
		return res, &l1packets.TransportError{Op: "open", Err: err}
	}
	diagf("session %s: collecting from %s for %s (max radius %.2fm)",
		res.SessionID, c.cfg.Port, c.cfg.Duration, c.cfg.MaxRadiusM)

	syncr := l1packets.NewSynchronizer(port, l1packets.WithMaxScanReads(c.cfg.MaxScanReads))
	acc := l2frames.NewAccumulator(c.cfg.MaxRadiusM)

	defer func() {
		if cerr := port.Close(); cerr != nil {
			opsf("session %s: close %s: %v", res.SessionID, c.cfg.Port, cerr)
			if err == nil {
				err = &l1packets.TransportError{Op: "close", Err: cerr}
			}
		}
		res.Elapsed = c.clock.Since(start)
		res.Samples = acc.Samples()
		res.Rejected = acc.Rejected()
		res.Sync = syncr.Stats()
		c.metrics.observeSync(res.Sync)
		diagf("session %s: %d frames, %d samples in %s", res.SessionID, res.Frames, len(res.Samples), res.Elapsed)
	}()

	for {
		if ctx.Err() != nil {
			res.Cancelled = true
			return res, nil
		}
		if c.cfg.Duration > 0 && c.clock.Since(start) >= c.cfg.Duration {
			return res, nil
		}

		pkt, err := syncr.Next()
		c.metrics.observeSync(syncr.Stats())
		if err != nil {
			if l1packets.Recoverable(err) {
				c.metrics.observeRetry(err)
				continue
			}
			if errors.Is(err, io.EOF) {
				diagf("session %s: source exhausted", res.SessionID)
				return res, nil
			}
			opsf("session %s: %v", res.SessionID, err)
			return res, err
		}

		frame, err := l1packets.Decode(pkt)
		if err != nil {
			c.metrics.observeRetry(err)
			continue
		}
		res.Frames++
		c.metrics.packetsDecoded.Inc()

		if c.onFrame != nil {
			c.onFrame(frame)
		}

		kept := acc.AddFrame(frame)
		c.metrics.samplesAccepted.Add(float64(kept))
		c.metrics.samplesRejected.Add(float64(l1packets.PointsPerPacket - kept))
	}
}
