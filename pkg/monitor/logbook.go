package monitor

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/itohio/thermwatch/pkg/device"
	"github.com/itohio/thermwatch/pkg/report"
	"github.com/sirupsen/logrus"
)

// TimestampFormat is the timestamp layout of log book records.
const TimestampFormat = "2006-01-02 15:04:05.000000"

// Logbook appends human readable temperature and error records to a file:
//
//	2025-03-01 12:00:00.000000 - Temp 3: 41C
//	2025-03-01 12:00:02.600000 - ERROR: No data received for 2.5s
type Logbook struct {
	log    *logrus.Logger
	closer io.Closer
}

// OpenLogbook opens (or creates) path for appending.
func OpenLogbook(path string) (*Logbook, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log book %s: %w", path, err)
	}
	lb := NewLogbook(f)
	lb.closer = f
	return lb, nil
}

// NewLogbook writes records to w.
func NewLogbook(w io.Writer) *Logbook {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(recordFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return &Logbook{log: l}
}

// Reading records a temperature.
func (lb *Logbook) Reading(r device.Reading) {
	lb.log.WithTime(r.Timestamp).Info(report.Format(r.Channel, r.Celsius))
}

// Error records a failure.
func (lb *Logbook) Error(err error) {
	lb.log.Error(err.Error())
}

// Shutdown records an over-temperature trip.
func (lb *Logbook) Shutdown(r device.Reading, threshold int) {
	lb.log.WithTime(r.Timestamp).Warnf("Shutdown triggered: Temp %d exceeded %dC", r.Channel, threshold)
}

// Close closes the underlying file, if the log book opened it.
func (lb *Logbook) Close() error {
	if lb.closer == nil {
		return nil
	}
	return lb.closer.Close()
}

// recordFormatter renders "<time> - [ERROR: ]<message>".
type recordFormatter struct{}

func (recordFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(e.Time.Format(TimestampFormat))
	b.WriteString(" - ")
	if e.Level <= logrus.ErrorLevel {
		b.WriteString("ERROR: ")
	}
	b.WriteString(e.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}
