package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/lidar2d/internal/config"
	"github.com/banshee-data/lidar2d/internal/lidar/l1packets"
	"github.com/banshee-data/lidar2d/internal/lidar/l2frames"
	"github.com/banshee-data/lidar2d/internal/lidar/render"
	"github.com/banshee-data/lidar2d/internal/lidar/session"
	"github.com/banshee-data/lidar2d/internal/lidardb"
	"github.com/banshee-data/lidar2d/internal/serialport"
	"github.com/banshee-data/lidar2d/internal/version"
)

type runOptions struct {
	stream bool
	notes  string
	out    io.Writer
}

// run performs one collection and hands the result to every configured
// output. Outputs are written even when the transport failed part way, so the
// samples already collected are kept; the transport error is still returned.
func run(ctx context.Context, cfg *config.SessionConfig, factory serialport.Factory, ro runOptions) error {
	var opts []session.Option
	if ro.stream {
		opts = append(opts, session.WithFrameHandler(func(f l1packets.MeasurementFrame) {
			printFrame(ro.out, f)
		}))
	}

	c := session.NewCollector(session.Config{
		Port:         cfg.Port,
		PortOptions:  cfg.PortOptions,
		Duration:     cfg.CollectionDuration(),
		MaxRadiusM:   cfg.MaxRadiusM,
		MaxScanReads: cfg.MaxScanReads,
	}, factory, opts...)

	res, runErr := c.Run(ctx)
	var te *l1packets.TransportError
	if errors.As(runErr, &te) && te.Op == "open" {
		return runErr
	}

	logResult(res)

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if err := writeOutputs(cfg, res, ro.notes); err != nil {
		errs = append(errs, err)
	}
	if cfg.MetricsPath != "" {
		if err := c.WriteMetricsTextfile(cfg.MetricsPath); err != nil {
			errs = append(errs, err)
		} else {
			logWritten("metrics", cfg.MetricsPath)
		}
	}
	return errors.Join(errs...)
}

func logResult(res *session.Result) {
	sum := l2frames.Summarise(res.Samples)
	how := "complete"
	if res.Cancelled {
		how = "interrupted"
	}
	log.Printf("Data collection %s: %s samples (%s beyond range) from %s frames in %s",
		how,
		humanize.Comma(int64(sum.Count)),
		humanize.Comma(int64(res.Rejected)),
		humanize.Comma(int64(res.Frames)),
		res.Elapsed.Round(time.Millisecond))
	if sum.Count > 0 {
		log.Printf("Distance min %.3fm max %.3fm mean %.3fm std %.3fm, %d° covered",
			sum.MinDistanceM, sum.MaxDistanceM, sum.MeanDistanceM, sum.StdDistanceM, sum.CoverageDeg)
	}
	if res.Sync.BytesDiscarded > 0 || res.Sync.ShortReads > 0 {
		log.Printf("Resynchronised: %s discarded, %d incomplete packets",
			humanize.Bytes(res.Sync.BytesDiscarded), res.Sync.ShortReads)
	}
}

func writeOutputs(cfg *config.SessionConfig, res *session.Result, notes string) error {
	var errs []error
	points := l2frames.Project(res.Samples)
	ro := render.Options{
		Subtitle: fmt.Sprintf("%s points=%d session=%s", cfg.Port, len(points), res.SessionID),
		ExtentM:  cfg.MaxRadiusM,
	}

	if cfg.PNGPath != "" {
		if err := render.SavePNG(cfg.PNGPath, points, ro); err != nil {
			errs = append(errs, err)
		} else {
			logWritten("plot", cfg.PNGPath)
		}
	}
	if cfg.HTMLPath != "" {
		if err := render.SaveHTML(cfg.HTMLPath, points, ro); err != nil {
			errs = append(errs, err)
		} else {
			logWritten("chart", cfg.HTMLPath)
		}
	}
	if cfg.DBPath != "" {
		if err := storeSession(cfg, res, notes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func storeSession(cfg *config.SessionConfig, res *session.Result, notes string) error {
	ldb, err := lidardb.NewLidarDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open lidar database: %w", err)
	}
	defer ldb.Close()

	if notes == "" {
		notes = version.String()
	}
	id, err := ldb.InsertSession(lidardb.LidarSession{
		ID:           res.SessionID,
		Port:         cfg.Port,
		StartedAt:    res.StartedAt,
		Elapsed:      res.Elapsed,
		Frames:       res.Frames,
		SamplesCount: len(res.Samples),
		Rejected:     res.Rejected,
		MaxRadiusM:   cfg.MaxRadiusM,
		Cancelled:    res.Cancelled,
		SessionNotes: notes,
	})
	if err != nil {
		return err
	}
	if err := ldb.InsertSamples(id, res.Samples); err != nil {
		return err
	}
	log.Printf("Stored session %s with %s samples in %s", id, humanize.Comma(int64(len(res.Samples))), cfg.DBPath)
	return nil
}

func logWritten(what, path string) {
	if info, err := os.Stat(path); err == nil {
		log.Printf("Wrote %s to %s (%s)", what, path, humanize.Bytes(uint64(info.Size())))
	}
}

func printFrame(w io.Writer, f l1packets.MeasurementFrame) {
	fmt.Fprintf(w, "speed=%.2f°/s start=%.2f° end=%.2f° timestamp=%.3fs\n",
		f.SpeedDegPerSec, f.StartAngleDeg, f.EndAngleDeg, f.TimestampS)
	for _, p := range f.Points {
		fmt.Fprintf(w, "  angle=%7.2f° distance=%6.3fm intensity=%3d\n", p.AngleDeg, p.DistanceM, p.Intensity)
	}
}
