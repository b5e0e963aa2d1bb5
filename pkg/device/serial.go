package device

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// openPort is replaced in tests.
var openPort = func(name string, baudRate int) (io.ReadCloser, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baudRate})
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Serial reads report lines from the board's UART.
type Serial struct {
	lifecycle

	port     string
	baudRate int
	stream   *stream
	conn     io.ReadCloser
}

// New creates a new Serial instance with the specified port, baud rate, buffer
// size and accepted value limits.
func New(port string, baudRate int, bufSize int, limits Limits) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	d := &Serial{
		port:     port,
		baudRate: baudRate,
		stream:   newStream(limits, bufSize),
	}
	d.init()
	return d
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.begin(); err != nil {
		return err
	}

	conn, err := openPort(d.port, d.baudRate)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = conn
	d.connected = true
	log.WithField("port", d.port).WithField("baud", d.baudRate).Info("connected")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.stream.consume(d.ctx, conn)
	}()

	return nil
}

// Close closes the port and waits for the reader to stop. The readings
// channel is closed afterwards.
func (d *Serial) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.cancel()

	if !d.connected {
		close(d.stream.readings)
		d.mu.Unlock()
		return nil
	}

	var err error
	if d.conn != nil {
		if err = d.conn.Close(); err != nil {
			log.WithError(err).WithField("port", d.port).Warn("error closing serial port")
			err = fmt.Errorf("failed to close serial port %s: %w", d.port, err)
		}
		d.conn = nil
	}
	d.connected = false
	d.mu.Unlock()

	d.wg.Wait()
	return err
}

// Readings returns the channel of validated readings.
func (d *Serial) Readings() <-chan Reading {
	return d.stream.readings
}

// Errors returns the channel of rejected lines.
func (d *Serial) Errors() <-chan error {
	return d.stream.errs
}

// Port returns the name of the serial port.
func (d *Serial) Port() string {
	return d.port
}
