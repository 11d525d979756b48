// Package xg derives shot geometry from rink coordinates and maps it to an
// expected-goal probability.
package xg

import (
	"math"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// Rink geometry in feet. Nets sit on the goal lines at (±GoalLineX, 0).
const (
	GoalLineX = 89.0

	// DefaultHighDangerDistance is the distance under which an attempt counts
	// as high danger.
	DefaultHighDangerDistance = 25.0

	// epsilon keeps probabilities strictly inside (0, 1).
	epsilon = 1e-4
)

// Geometry returns the distance in feet from (x, y) to the attacked net and
// the angle in degrees off the net's centre line. Attempts from the far half
// are mirrored so both ends of the rink are treated alike. Attempts on or
// behind the goal line get an angle of 90.
func Geometry(x, y float64) (distance, angle float64) {
	if x < 0 {
		x, y = -x, -y
	}
	dx := GoalLineX - x
	dy := math.Abs(y)
	distance = math.Hypot(dx, dy)
	if dx <= 0 {
		return distance, 90
	}
	angle = math.Atan(dy/dx) * 180 / math.Pi
	return distance, angle
}

// HighDanger reports whether distance is under threshold.
func HighDanger(distance, threshold float64) bool {
	return distance < threshold
}

// Coefficients parametrize the logistic model. Distance and Angle must be
// non-positive for the model to stay monotone.
type Coefficients struct {
	Intercept float64
	Distance  float64 // per foot
	Angle     float64 // per degree

	Technique map[model.Technique]float64
	Manpower  map[model.Manpower]float64
}

// DefaultCoefficients is a hand-calibrated fit against league-average
// conversion by distance.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Intercept: -0.65,
		Distance:  -0.075,
		Angle:     -0.012,
		Technique: map[model.Technique]float64{
			model.TechniqueWrist:      0,
			model.TechniqueSnap:       0.05,
			model.TechniqueSlap:       -0.10,
			model.TechniqueBackhand:   -0.15,
			model.TechniqueTipIn:      0.25,
			model.TechniqueDeflected:  0.20,
			model.TechniqueWrapAround: -0.30,
		},
		Manpower: map[model.Manpower]float64{
			model.ManpowerEven:         0,
			model.ManpowerAdvantage:    0.35,
			model.ManpowerDisadvantage: -0.25,
		},
	}
}

// Model is a logistic expected-goal model.
type Model struct {
	c Coefficients
}

// New returns a model using c. Positive distance or angle slopes are clamped
// to zero, as are a negative power-play or a positive short-handed
// adjustment.
func New(c Coefficients) *Model {
	c.Distance = math.Min(c.Distance, 0)
	c.Angle = math.Min(c.Angle, 0)
	mp := make(map[model.Manpower]float64, len(c.Manpower))
	for k, v := range c.Manpower {
		mp[k] = v
	}
	mp[model.ManpowerAdvantage] = math.Max(mp[model.ManpowerAdvantage], 0)
	mp[model.ManpowerDisadvantage] = math.Min(mp[model.ManpowerDisadvantage], 0)
	c.Manpower = mp
	return &Model{c: c}
}

// Default returns a model with DefaultCoefficients.
func Default() *Model { return New(DefaultCoefficients()) }

// Probability returns the chance an attempt with the given context scores.
// The result is strictly between 0 and 1.
func (m *Model) Probability(distance, angle float64, tech model.Technique, mp model.Manpower) float64 {
	distance = math.Max(distance, 0)
	angle = math.Min(math.Max(angle, 0), 90)
	z := m.c.Intercept +
		m.c.Distance*distance +
		m.c.Angle*angle +
		m.c.Technique[tech] +
		m.c.Manpower[mp]
	p := 1 / (1 + math.Exp(-z))
	return math.Min(math.Max(p, epsilon), 1-epsilon)
}

// Shot scores ev from its coordinates and context.
func (m *Model) Shot(ev *model.ShotEvent) float64 {
	d, a := Geometry(ev.X, ev.Y)
	return m.Probability(d, a, ev.Technique, ev.Manpower)
}
