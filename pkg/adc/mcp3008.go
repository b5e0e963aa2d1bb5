// Package adc provides analog input facilities for running the acquisition
// loop on a host instead of the MCU: an MCP3008 on a Linux SPI bus, an
// ADS1115 on I2C and a simulated thermistor bank.
package adc

import (
	"fmt"
	"sync"

	"github.com/itohio/thermwatch/pkg/acquire"
	"github.com/itohio/thermwatch/pkg/channel"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MCP3008Speed is the maximum SPI clock at 2.7V supply.
const MCP3008Speed = 1 * physic.MegaHertz

var _ acquire.Sampler = (*MCP3008)(nil)

// MCP3008 is an 8 channel, 10-bit SPI ADC. Its resolution and channel count
// match the final board revision, so pin numbers map directly to its inputs.
type MCP3008 struct {
	mu   sync.Mutex
	conn spi.Conn
	port spi.PortCloser // nil when constructed from an existing connection
	tx   [3]byte
	rx   [3]byte
}

// NewMCP3008 wraps an already configured SPI connection.
func NewMCP3008(conn spi.Conn) *MCP3008 {
	return &MCP3008{conn: conn}
}

// OpenMCP3008 initialises periph host drivers and opens the named SPI port
// (empty name selects the first available port).
func OpenMCP3008(name string) (*MCP3008, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise host drivers: %w", err)
	}

	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", name, err)
	}

	if err := port.LimitSpeed(MCP3008Speed); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to limit SPI speed: %w", err)
	}

	conn, err := port.Connect(MCP3008Speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to connect to MCP3008: %w", err)
	}

	return &MCP3008{conn: conn, port: port}, nil
}

// Sample reads a single-ended conversion from the channel's pin.
func (m *MCP3008) Sample(ch channel.Channel) (uint16, error) {
	if ch.Pin > 7 {
		return 0, fmt.Errorf("MCP3008 has no input %d", ch.Pin)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Start bit, single-ended mode + channel, don't care.
	m.tx = [3]byte{0x01, (0x08 | ch.Pin) << 4, 0x00}
	if err := m.conn.Tx(m.tx[:], m.rx[:]); err != nil {
		return 0, fmt.Errorf("MCP3008 transfer failed: %w", err)
	}

	return decode(m.rx), nil
}

// Close releases the SPI port if this instance opened it.
func (m *MCP3008) Close() error {
	if m.port == nil {
		return nil
	}
	return m.port.Close()
}

// decode extracts the 10-bit result from the last two response bytes.
func decode(rx [3]byte) uint16 {
	return (uint16(rx[1])<<8 | uint16(rx[2])) & 0x3FF
}
