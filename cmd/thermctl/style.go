package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/itohio/thermwatch/pkg/history"
	"github.com/itohio/thermwatch/pkg/monitor"
	"github.com/itohio/thermwatch/pkg/report"
	"github.com/itohio/thermwatch/pkg/sample"
)

// Theme styles the console monitor.
type Theme struct {
	Time   lipgloss.Style
	Normal lipgloss.Style
	Warm   lipgloss.Style
	Hot    lipgloss.Style
	Gap    lipgloss.Style
	Alert  lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Time:   lipgloss.NewStyle().Faint(true),
		Normal: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warm:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Hot:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Gap:    lipgloss.NewStyle().Faint(true),
		Alert: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Padding(0, 1),
	}
}

func (t Theme) level(l history.Level) lipgloss.Style {
	switch l {
	case history.LevelHot:
		return t.Hot
	case history.LevelWarm:
		return t.Warm
	}
	return t.Normal
}

// Frame renders one row with every channel coloured by its level.
func (t Theme) Frame(f sample.Frame, th history.Thresholds) string {
	var b strings.Builder
	b.WriteString(t.Time.Render(f.Timestamp.Format(time.TimeOnly)))
	for i, c := range f.Celsius {
		b.WriteString("  ")
		if !f.Valid[i] {
			b.WriteString(t.Gap.Render(fmt.Sprintf("Temp %d: --", i)))
			continue
		}
		b.WriteString(t.level(history.Classify(c, th)).Render(report.Format(i, c)))
	}
	return b.String()
}

// Banner renders an alert.
func (t Theme) Banner(a monitor.Alert) string {
	return t.Alert.Render(strings.ToUpper(a.Kind.String())) + " " + a.Message
}
