package main

import (
	"errors"
	"testing"

	"github.com/itohio/thermwatch/pkg/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPorts(t *testing.T, ports []device.Port, err error) {
	t.Helper()
	orig := listPorts
	listPorts = func() ([]device.Port, error) { return ports, err }
	t.Cleanup(func() { listPorts = orig })
}

func TestPorts(t *testing.T) {
	stubPorts(t, []device.Port{{Name: "/dev/ttyACM0"}, {Name: "/dev/ttyUSB1"}}, nil)

	out, err := execute(t, "ports")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0\n/dev/ttyUSB1\n", out)
}

func TestPorts_None(t *testing.T) {
	stubPorts(t, nil, nil)

	out, err := execute(t, "ports")
	require.NoError(t, err)
	assert.Contains(t, out, "no serial ports")
}

func TestPorts_Error(t *testing.T) {
	stubPorts(t, nil, errors.New("enumeration failed"))

	_, err := execute(t, "ports")
	assert.ErrorContains(t, err, "enumeration failed")
}
