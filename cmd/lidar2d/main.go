package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/lidar2d/internal/config"
	"github.com/banshee-data/lidar2d/internal/lidar/l1packets"
	"github.com/banshee-data/lidar2d/internal/lidar/session"
	"github.com/banshee-data/lidar2d/internal/serialport"
	"github.com/banshee-data/lidar2d/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to a JSON, TOML or YAML config file")
	port         = flag.String("port", "/dev/ttyUSB0", "Serial port the sensor is attached to")
	baud         = flag.Int("baud", serialport.DefaultBaudRate, "Serial baud rate")
	readTimeout  = flag.Duration("read-timeout", serialport.DefaultReadTimeout, "Serial read timeout")
	duration     = flag.Float64("duration", 10, "Collection duration in seconds (0 = no limit, collect until interrupted)")
	maxRadius    = flag.Float64("max-radius", 10.0, "Drop points further than this many meters (0 = no filter, keep all)")
	maxScanReads = flag.Int("max-scan-reads", l1packets.DefaultMaxScanReads, "Non-header bytes skipped per header scan before re-checking the deadline (0 = unbounded)")
	stream       = flag.Bool("stream", false, "Print every decoded frame until interrupted instead of collecting")
	replay       = flag.String("replay", "", "Decode a recorded byte capture instead of a serial device")
	pngPath      = flag.String("png", "", "Write a PNG scatter plot to this path")
	htmlPath     = flag.String("html", "", "Write an HTML scatter chart to this path")
	dbPath       = flag.String("db", "", "Store the session and its samples in this sqlite database")
	metricsPath  = flag.String("metrics-textfile", "", "Write session counters in node_exporter textfile format to this path")
	notes        = flag.String("notes", "", "Free-text notes stored with the session")
	debug        = flag.Bool("debug", false, "Enable diagnostic logging")
	traceRaw     = flag.Bool("trace-raw", false, "Log every raw packet as hex")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// flagKeys maps command-line flags onto the config keys they override.
var flagKeys = map[string]func(*config.SessionConfig){
	"port":             func(c *config.SessionConfig) { c.Port = *port },
	"baud":             func(c *config.SessionConfig) { c.BaudRate = *baud },
	"read-timeout":     func(c *config.SessionConfig) { c.ReadTimeout = *readTimeout },
	"duration":         func(c *config.SessionConfig) { c.CollectionDurationS = *duration },
	"max-radius":       func(c *config.SessionConfig) { c.MaxRadiusM = *maxRadius },
	"max-scan-reads":   func(c *config.SessionConfig) { c.MaxScanReads = *maxScanReads },
	"png":              func(c *config.SessionConfig) { c.PNGPath = *pngPath },
	"html":             func(c *config.SessionConfig) { c.HTMLPath = *htmlPath },
	"db":               func(c *config.SessionConfig) { c.DBPath = *dbPath },
	"metrics-textfile": func(c *config.SessionConfig) { c.MetricsPath = *metricsPath },
}

// applyFlags overrides cfg with every flag explicitly set on fs, so file and
// environment values survive unless the command line names them.
func applyFlags(cfg *config.SessionConfig, fs *flag.FlagSet) error {
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := flagKeys[f.Name]; ok {
			apply(cfg)
		}
	})
	if *replay != "" {
		cfg.Port = *replay
	}
	if *stream {
		cfg.CollectionDurationS = 0
	}
	return cfg.Validate()
}

func setupLogging(stderr io.Writer) {
	var diag, trace io.Writer
	if *debug {
		diag = stderr
	}
	if *traceRaw {
		trace = stderr
	}
	l1packets.SetLogWriters(stderr, diag, trace)
	session.SetLogWriters(stderr, diag)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := applyFlags(cfg, flag.CommandLine); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(os.Stderr)

	var factory serialport.Factory = serialport.SerialFactory{}
	if *replay != "" {
		factory = serialport.FileFactory{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *stream {
		log.Printf("Streaming LiDAR data from %s (Ctrl-C to stop)", cfg.Port)
	} else {
		log.Printf("Collecting data from %s for %s", cfg.Port, cfg.CollectionDuration())
	}

	start := time.Now()
	if err := run(ctx, cfg, factory, runOptions{stream: *stream, notes: *notes, out: os.Stdout}); err != nil {
		log.Fatalf("lidar2d failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
	}
}
