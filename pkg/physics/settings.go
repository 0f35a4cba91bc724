package physics

import "math"

const (
	DefaultIterations = 8
	DefaultBoundary   = 1000.0
	MinGridCells      = 10
)

// Settings holds the solver and sleep tuning. LinearSlop is the
// penetration positional correction leaves alone, Baumgarte the fraction
// of the remainder removed per step, and VelocityThreshold the closing
// speed below which contacts are treated as inelastic.
type Settings struct {
	LinearSlop          float64
	Baumgarte           float64
	MaxLinearCorrection float64
	VelocityThreshold   float64

	TimeToSleep           float64
	LinearSleepTolerance  float64
	AngularSleepTolerance float64
}

func DefaultSettings() Settings {
	return Settings{
		LinearSlop:            0.005,
		Baumgarte:             0.2,
		MaxLinearCorrection:   0.2,
		VelocityThreshold:     1.0,
		TimeToSleep:           0.5,
		LinearSleepTolerance:  0.01,
		AngularSleepTolerance: 2.0 / 180.0 * math.Pi,
	}
}
