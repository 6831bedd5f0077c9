package serial

import (
	"fmt"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation.
type NativePort struct {
	*serial.Port
	cfg *Config
}

// Open opens a native serial port.
func Open(cfg *Config) (*NativePort, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return &NativePort{Port: port, cfg: cfg}, nil
}

// Name returns the device path.
func (p *NativePort) Name() string {
	return p.cfg.Device
}

// Config returns the config the port was opened with.
func (p *NativePort) Config() Config {
	return *p.cfg
}
