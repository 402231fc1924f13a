package serialport

import (
	"fmt"
	"os"

	"go.bug.st/serial"
)

// SerialFactory opens real serial devices with go.bug.st/serial.
type SerialFactory struct{}

// Open opens the device at path and applies the configured read timeout so
// that idle reads return zero bytes instead of blocking forever.
func (SerialFactory) Open(path string, opts PortOptions) (Port, error) {
	norm, err := opts.Normalise()
	if err != nil {
		return nil, err
	}
	mode, err := norm.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	if err := port.SetReadTimeout(norm.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}

	return port, nil
}

// FileFactory opens a recorded byte capture instead of a device. Line options
// are validated but otherwise ignored. The returned port reports io.EOF once the
// capture is exhausted.
type FileFactory struct{}

// Open opens the capture file at path.
func (FileFactory) Open(path string, opts PortOptions) (Port, error) {
	if _, err := opts.Normalise(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return f, nil
}
