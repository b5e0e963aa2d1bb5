// Package report formats and parses the line-oriented temperature report the
// board writes to its serial port:
//
//	Temp <index>: <degrees>C
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const prefix = "Temp"

// Default value limits accepted by Validate callers.
const (
	MinCelsius = -20
	MaxCelsius = 150
)

var (
	// ErrMalformed marks a line that is not a temperature report.
	ErrMalformed = errors.New("malformed report line")
	// ErrOutOfRange marks a well-formed line with an implausible channel or value.
	ErrOutOfRange = errors.New("report value out of range")
)

// Line is one parsed report.
type Line struct {
	Channel int
	Celsius int
}

func (l Line) String() string {
	return Format(l.Channel, l.Celsius)
}

// Format renders a report line without the trailing newline.
func Format(index, celsius int) string {
	return string(Append(nil, index, celsius))
}

// Append appends a report line (without newline) to dst.
func Append(dst []byte, index, celsius int) []byte {
	dst = append(dst, prefix...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(index), 10)
	dst = append(dst, ':', ' ')
	dst = strconv.AppendInt(dst, int64(celsius), 10)
	return append(dst, 'C')
}

// Parse decodes a single report line. Surrounding whitespace is ignored.
func Parse(line string) (Line, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, prefix) {
		return Line{}, fmt.Errorf("%w: invalid prefix: %q", ErrMalformed, line)
	}

	parts := strings.Fields(line)
	if len(parts) != 3 || parts[0] != prefix {
		return Line{}, fmt.Errorf("%w: expected 3 fields, got %d: %q", ErrMalformed, len(parts), line)
	}

	idx, ok := strings.CutSuffix(parts[1], ":")
	if !ok {
		return Line{}, fmt.Errorf("%w: channel %q missing ':'", ErrMalformed, parts[1])
	}
	channel, err := strconv.Atoi(idx)
	if err != nil {
		return Line{}, fmt.Errorf("%w: invalid channel: %w", ErrMalformed, err)
	}

	val, ok := strings.CutSuffix(parts[2], "C")
	if !ok {
		return Line{}, fmt.Errorf("%w: value %q missing 'C'", ErrMalformed, parts[2])
	}
	celsius, err := strconv.Atoi(val)
	if err != nil {
		return Line{}, fmt.Errorf("%w: invalid value: %w", ErrMalformed, err)
	}

	return Line{Channel: channel, Celsius: celsius}, nil
}

// Validate checks the channel against the number of channels on the board and
// the value against [min, max].
func (l Line) Validate(channels, min, max int) error {
	if l.Channel < 0 || l.Channel >= channels {
		return fmt.Errorf("%w: channel %d (have %d)", ErrOutOfRange, l.Channel, channels)
	}
	if l.Celsius < min || l.Celsius > max {
		return fmt.Errorf("%w: %dC outside [%d, %d]", ErrOutOfRange, l.Celsius, min, max)
	}
	return nil
}
