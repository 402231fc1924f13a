package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar2d/internal/lidar/l1packets"
	"github.com/banshee-data/lidar2d/internal/serialport"
	"github.com/banshee-data/lidar2d/internal/timeutil"
)

func packet(start, end float64, dists ...float64) []byte {
	f := l1packets.MeasurementFrame{
		SpeedDegPerSec: 3600,
		StartAngleDeg:  start,
		EndAngleDeg:    end,
	}
	for i := range f.Points {
		f.Points[i].DistanceM = 1.0
		if i < len(dists) {
			f.Points[i].DistanceM = dists[i]
		}
		f.Points[i].Intensity = 200
	}
	p := l1packets.Encode(f)
	return p[:]
}

func testConfig() Config {
	return Config{
		Port:       "/dev/ttyUSB0",
		MaxRadiusM: 10.0,
	}
}

func TestRun_CollectsAndFilters(t *testing.T) {
	port := serialport.NewTestablePort().
		AddReadData(packet(10, 21, 9.99, 15.0)).
		AddReadData(packet(21, 32))
	factory := serialport.NewMockFactory(port)

	c := NewCollector(testConfig(), factory)
	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, 1, res.Rejected)
	require.Len(t, res.Samples, 23)
	assert.InDelta(t, 9.99, res.Samples[0].DistanceM, 1e-9)
	assert.InDelta(t, 10.0, res.Samples[0].AngleDeg, 1e-9)
	assert.InDelta(t, 1.0, res.Samples[1].DistanceM, 1e-9, "15 m point is excluded")
	assert.InDelta(t, 12.0, res.Samples[1].AngleDeg, 1e-9)
	assert.False(t, res.Cancelled)
	assert.NotEmpty(t, res.SessionID)

	assert.Equal(t, 1, port.Closes())
	require.NotNil(t, factory.LastCall())
	assert.Equal(t, "/dev/ttyUSB0", factory.LastCall().Path)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.packetsDecoded))
	assert.Equal(t, 23.0, testutil.ToFloat64(c.metrics.samplesAccepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.samplesRejected))
}

func TestRun_ResynchronisesAfterCorruption(t *testing.T) {
	port := serialport.NewTestablePort().
		AddReadData([]byte{0x00, 0x01, 0x02}).
		AddReadData([]byte{l1packets.HeaderByte}).
		AddReadData(bytes.Repeat([]byte{0x07}, 20)).
		AddTimeout().
		AddReadData(packet(100, 111))

	c := NewCollector(testConfig(), serialport.NewMockFactory(port))
	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Frames)
	assert.Len(t, res.Samples, 12)
	assert.Equal(t, uint64(1), res.Sync.ShortReads)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.shortReads))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.metrics.bytesDiscarded),
		"the dropped partial payload is not counted as scanned garbage")
}

func TestRun_DurationBound(t *testing.T) {
	port := serialport.NewTestablePort()
	for i := 0; i < 10; i++ {
		port.AddReadData(packet(0, 11))
	}
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	clock.SetStep(time.Second)

	cfg := testConfig()
	cfg.Duration = 3 * time.Second
	res, err := NewCollector(cfg, serialport.NewMockFactory(port), WithClock(clock)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, 4*time.Second, res.Elapsed)
	assert.True(t, port.Pending(), "unread packets remain on the wire")
	assert.Equal(t, 1, port.Closes())
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	port := serialport.NewTestablePort().AddReadData(packet(0, 11))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewCollector(testConfig(), serialport.NewMockFactory(port)).Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Zero(t, res.Frames)
	assert.Equal(t, 1, port.Closes())
}

func TestRun_CancelKeepsCollectedSamples(t *testing.T) {
	port := serialport.NewTestablePort().
		AddReadData(packet(0, 11)).
		AddReadData(packet(11, 22)).
		AddReadData(packet(22, 33))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []l1packets.MeasurementFrame
	c := NewCollector(testConfig(), serialport.NewMockFactory(port),
		WithFrameHandler(func(f l1packets.MeasurementFrame) {
			seen = append(seen, f)
			cancel()
		}))

	res, err := c.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 1, res.Frames)
	assert.Len(t, res.Samples, 12)
	require.Len(t, seen, 1)
	assert.InDelta(t, 11.0, seen[0].EndAngleDeg, 1e-9)
	assert.Equal(t, 1, port.Closes())
}

func TestRun_ReadErrorClosesOnce(t *testing.T) {
	cause := errors.New("device disconnected")
	port := serialport.NewTestablePort().
		AddReadData(packet(0, 11)).
		AddReadError(cause).
		AddReadData(packet(11, 22))

	res, err := NewCollector(testConfig(), serialport.NewMockFactory(port)).Run(context.Background())

	var te *l1packets.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "read", te.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, port.Closes(), "transport closed exactly once")
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Frames, "samples before the failure are kept")
	assert.Len(t, res.Samples, 12)
}

func TestRun_OpenError(t *testing.T) {
	factory := serialport.NewMockFactory(nil)
	factory.Error = errors.New("permission denied")

	res, err := NewCollector(testConfig(), factory).Run(context.Background())
	var te *l1packets.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "open", te.Op)
	require.NotNil(t, res)
	assert.Empty(t, res.Samples)
}

func TestRun_CloseErrorSurfaces(t *testing.T) {
	port := serialport.NewTestablePort().AddReadData(packet(0, 11))
	port.CloseError = errors.New("close failed")

	res, err := NewCollector(testConfig(), serialport.NewMockFactory(port)).Run(context.Background())
	var te *l1packets.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "close", te.Op)
	assert.Len(t, res.Samples, 12)
	assert.Equal(t, 1, port.Closes())
}

// silentPort models a connected sensor that sends nothing: every read blocks
// for the read timeout, then returns no data.
type silentPort struct {
	clock   *timeutil.MockClock
	timeout time.Duration
	onRead  func(n int)
	reads   int
	closes  int
}

func (p *silentPort) Read([]byte) (int, error) {
	p.reads++
	p.clock.Advance(p.timeout)
	if p.onRead != nil {
		p.onRead(p.reads)
	}
	return 0, nil
}

func (p *silentPort) Close() error {
	p.closes++
	return nil
}

func TestRun_SilentSensorHonoursDuration(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	port := &silentPort{clock: clock, timeout: serialport.DefaultReadTimeout}

	cfg := testConfig()
	cfg.Duration = 10 * time.Second
	cfg.MaxScanReads = l1packets.DefaultMaxScanReads
	c := NewCollector(cfg, serialport.NewMockFactory(port), WithClock(clock))

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Elapsed, cfg.Duration+port.timeout,
		"run lasted %s against a %s bound", res.Elapsed, cfg.Duration)
	assert.Equal(t, 10, port.reads)
	assert.Equal(t, 1, port.closes)
	assert.Zero(t, res.Frames)
	assert.Equal(t, 10.0, testutil.ToFloat64(c.metrics.idleReads))
	assert.Equal(t, uint64(10), res.Sync.EmptyReads)
	assert.Zero(t, res.Sync.ScanLimits)
}

func TestRun_SilentSensorHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	port := &silentPort{clock: clock, timeout: time.Second, onRead: func(n int) {
		if n == 3 {
			cancel()
		}
	}}

	// No duration bound: only cancellation can end the run.
	res, err := NewCollector(testConfig(), serialport.NewMockFactory(port), WithClock(clock)).Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 3, port.reads, "cancellation is seen after the read that timed out")
	assert.Equal(t, 1, port.closes)
}

func TestRun_ScanLimitOnGarbage(t *testing.T) {
	port := serialport.NewTestablePort().
		AddReadData(bytes.Repeat([]byte{0x00}, 20)).
		AddReadData(packet(0, 11))

	cfg := testConfig()
	cfg.MaxScanReads = 8
	c := NewCollector(cfg, serialport.NewMockFactory(port))

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Frames)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.scanLimits))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.metrics.bytesDiscarded))
	assert.Zero(t, testutil.ToFloat64(c.metrics.idleReads))
}

func TestWriteMetricsTextfile(t *testing.T) {
	port := serialport.NewTestablePort().AddReadData(packet(0, 11))
	c := NewCollector(testConfig(), serialport.NewMockFactory(port))
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "lidar2d.prom")
	require.NoError(t, c.WriteMetricsTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lidar2d_packets_decoded_total 1")
	assert.Contains(t, string(data), "lidar2d_samples_accepted_total 12")

	n, err := testutil.GatherAndCount(c.Registry())
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestSetLogWriters(t *testing.T) {
	var ops, diag bytes.Buffer
	SetLogWriters(&ops, &diag)
	defer SetLogWriters(nil, nil)

	factory := serialport.NewMockFactory(nil)
	factory.Error = errors.New("no such device")
	_, _ = NewCollector(testConfig(), factory).Run(context.Background())
	assert.Contains(t, ops.String(), "no such device")

	port := serialport.NewTestablePort().AddReadData(packet(0, 11))
	_, err := NewCollector(testConfig(), serialport.NewMockFactory(port)).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, diag.String(), "1 frames, 12 samples")
}
