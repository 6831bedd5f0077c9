// Package serial opens UART ports as frame byte sources.
package serial

import (
	"flag"
	"io"
	"os"
	"strconv"
	"time"
)

// Port is a serial port. Read returns whatever arrived within ReadTimeout,
// possibly nothing.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM4")
	Device string

	// Baud rate of the link.
	Baud int

	// ReadTimeout bounds a single read. A zero timeout blocks.
	ReadTimeout time.Duration
}

var defaultConfig = Config{
	Device:      "/dev/ttyUSB0",
	Baud:        115200,
	ReadTimeout: 10 * time.Second,
}

func init() {
	if val := os.Getenv("UARTCAM_PORT"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("UARTCAM_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.Baud = baud
		}
	}
	if val := os.Getenv("UARTCAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.ReadTimeout = d
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "port", defaultConfig.Device, "Serial device path.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "timeout", defaultConfig.ReadTimeout, "Read timeout.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// WithDevice returns a copy of the config for another device.
func (c *Config) WithDevice(device string) *Config {
	conf := *c
	conf.Device = device
	return &conf
}
