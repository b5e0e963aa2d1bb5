package adc

import (
	"errors"
	"testing"

	"github.com/itohio/thermwatch/pkg/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// fakeConn answers every transfer with a fixed 10-bit value per channel and
// records the command bytes.
type fakeConn struct {
	values map[byte]uint16
	writes [][]byte
	err    error
}

func (f *fakeConn) String() string               { return "fake" }
func (f *fakeConn) Duplex() conn.Duplex          { return conn.Full }
func (f *fakeConn) Halt() error                  { return nil }
func (f *fakeConn) TxPackets([]spi.Packet) error { return errors.New("not implemented") }

func (f *fakeConn) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, append([]byte(nil), w...))
	ch := (w[1] >> 4) & 0x07
	v := f.values[ch]
	// Upper bits of r[1] are undefined on the wire; set them to check masking.
	r[0] = 0xFF
	r[1] = 0xF8 | byte(v>>8)
	r[2] = byte(v)
	return nil
}

func TestMCP3008_Sample(t *testing.T) {
	fc := &fakeConn{values: map[byte]uint16{0: 511, 3: 1023, 7: 0}}
	adc := NewMCP3008(fc)

	tests := []struct {
		pin  uint8
		want uint16
		cmd  []byte
	}{
		{0, 511, []byte{0x01, 0x80, 0x00}},
		{3, 1023, []byte{0x01, 0xB0, 0x00}},
		{7, 0, []byte{0x01, 0xF0, 0x00}},
	}

	for _, tt := range tests {
		got, err := adc.Sample(channel.Channel{Pin: tt.pin})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.cmd, fc.writes[len(fc.writes)-1])
	}
}

func TestMCP3008_InvalidPin(t *testing.T) {
	adc := NewMCP3008(&fakeConn{})
	_, err := adc.Sample(channel.Channel{Pin: 8})
	assert.Error(t, err)
}

func TestMCP3008_TransferError(t *testing.T) {
	adc := NewMCP3008(&fakeConn{err: errors.New("bus error")})
	_, err := adc.Sample(channel.Channel{Pin: 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bus error")
}

func TestMCP3008_CloseWithoutPort(t *testing.T) {
	adc := NewMCP3008(&fakeConn{})
	assert.NoError(t, adc.Close())
}

func TestDecode(t *testing.T) {
	assert.Equal(t, uint16(0x3FF), decode([3]byte{0xFF, 0xFF, 0xFF}))
	assert.Equal(t, uint16(0x155), decode([3]byte{0x00, 0x01, 0x55}))
	assert.Equal(t, uint16(0), decode([3]byte{0xFF, 0xFC, 0x00}))
}
