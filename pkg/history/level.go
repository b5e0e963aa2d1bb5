package history

// Level classifies a temperature for display.
type Level int

const (
	LevelNormal Level = iota
	LevelWarm
	LevelHot
)

func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelWarm:
		return "warm"
	case LevelHot:
		return "hot"
	}
	return "unknown"
}

// Thresholds are the lower bounds of the warm and hot levels.
type Thresholds struct {
	Warm int
	Hot  int
}

// DefaultThresholds returns the thresholds used by the tray icon.
func DefaultThresholds() Thresholds {
	return Thresholds{Warm: 65, Hot: 80}
}

// Classify maps celsius to a level.
func Classify(celsius int, t Thresholds) Level {
	switch {
	case celsius >= t.Hot:
		return LevelHot
	case celsius >= t.Warm:
		return LevelWarm
	}
	return LevelNormal
}
