package device

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/itohio/thermwatch/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipePort stubs openPort with an in-memory pipe and returns the writing end.
func pipePort(t *testing.T) *io.PipeWriter {
	t.Helper()
	pr, pw := io.Pipe()
	orig := openPort
	openPort = func(string, int) (io.ReadCloser, error) { return pr, nil }
	t.Cleanup(func() {
		openPort = orig
		pw.Close()
	})
	return pw
}

func TestNew(t *testing.T) {
	dev := New("COM3", 115200, 100, DefaultLimits())
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.Port())
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, cap(dev.stream.readings))
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("COM3", 0, 0, DefaultLimits())
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, cap(dev.stream.readings))
}

func TestSerial_ConnectFails(t *testing.T) {
	orig := openPort
	openPort = func(string, int) (io.ReadCloser, error) { return nil, errors.New("no such port") }
	defer func() { openPort = orig }()

	dev := New("/dev/nothing", 0, 0, DefaultLimits())
	err := dev.Connect()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/nothing")
	assert.False(t, dev.IsConnected())
}

func TestSerial_Readings(t *testing.T) {
	pw := pipePort(t)
	dev := New("COM3", 0, 0, DefaultLimits())
	require.NoError(t, dev.Connect())
	assert.True(t, dev.IsConnected())

	go func() {
		io.WriteString(pw, "Temp 0: 25C\r\n")
		io.WriteString(pw, "garbage\n")
		io.WriteString(pw, "\n")
		io.WriteString(pw, "Temp 9: 25C\n")
		io.WriteString(pw, "Temp 7: 114C\n")
		pw.Close()
	}()

	var got []Reading
	for r := range dev.Readings() {
		got = append(got, r)
	}

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Channel)
	assert.Equal(t, 25, got[0].Celsius)
	assert.Equal(t, 7, got[1].Channel)
	assert.Equal(t, 114, got[1].Celsius)
	assert.False(t, got[0].Timestamp.IsZero())

	errs := dev.Errors()
	require.Len(t, errs, 2)
	assert.ErrorIs(t, <-errs, report.ErrMalformed)
	assert.ErrorIs(t, <-errs, report.ErrOutOfRange)

	assert.NoError(t, dev.Close())
}

func TestSerial_ConnectTwice(t *testing.T) {
	pipePort(t)
	dev := New("COM3", 0, 0, DefaultLimits())
	require.NoError(t, dev.Connect())
	defer dev.Close()

	assert.ErrorIs(t, dev.Connect(), ErrAlreadyConnected)
}

func TestSerial_ConnectAfterClose(t *testing.T) {
	dev := New("COM3", 0, 0, DefaultLimits())
	require.NoError(t, dev.Close())
	assert.ErrorIs(t, dev.Connect(), ErrClosed)
}

// TestSerial_GracefulShutdown checks that Close unblocks a pending read and
// closes the readings channel.
func TestSerial_GracefulShutdown(t *testing.T) {
	pw := pipePort(t)
	dev := New("COM3", 0, 0, DefaultLimits())
	require.NoError(t, dev.Connect())

	go io.WriteString(pw, "Temp 1: 40C\n")

	select {
	case r := <-dev.Readings():
		assert.Equal(t, 40, r.Celsius)
	case <-time.After(5 * time.Second):
		t.Fatal("no reading received")
	}

	closed := make(chan struct{})
	go func() {
		dev.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	_, ok := <-dev.Readings()
	assert.False(t, ok, "Channel should be closed")
	assert.False(t, dev.IsConnected())
	assert.NoError(t, dev.Close())
}

func TestSerial_CloseWithoutConnect(t *testing.T) {
	dev := New("COM3", 0, 0, DefaultLimits())
	require.NoError(t, dev.Close())

	_, ok := <-dev.Readings()
	assert.False(t, ok)
}
