package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	conf := NewConfig()
	conf.Baud = 9600
	require.NotEqual(t, 9600, Default().Baud)

	other := conf.WithDevice("COM4")
	require.Equal(t, "COM4", other.Device)
	require.Equal(t, 9600, other.Baud)
	require.NotEqual(t, "COM4", conf.Device)
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	require.Error(t, err)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(&Config{Device: "/dev/uartcam-does-not-exist", Baud: 115200, ReadTimeout: time.Second})
	require.Error(t, err)
	require.Contains(t, err.Error(), "/dev/uartcam-does-not-exist")
}
