package quench

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Placement selects how O2 molecules are initially scattered.
type Placement int

const (
	// LowDensity keeps uniform samples where the polymer density is below
	// 0.3, i.e. outside the particle.
	LowDensity Placement = iota
	// DensityWeighted keeps a uniform sample with probability equal to the
	// density there, concentrating O2 inside the particle.
	DensityWeighted
)

func (p Placement) String() string {
	switch p {
	case LowDensity:
		return "low_density"
	case DensityWeighted:
		return "density_weighted"
	}
	return fmt.Sprintf("placement(%d)", int(p))
}

func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low_density", "low-density", "low":
		return LowDensity, nil
	case "density_weighted", "density-weighted", "weighted":
		return DensityWeighted, nil
	}
	return 0, errors.Wrapf(ErrInvalidParams, "unknown placement %q", s)
}

func (p Placement) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Placement) UnmarshalText(b []byte) error {
	v, err := ParsePlacement(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type Params struct {
	GridSize         int       `yaml:"grid_size" json:"grid_size"`
	CoreRadius       float64   `yaml:"core_radius" json:"core_radius"`
	SurfaceThickness float64   `yaml:"surface_thickness" json:"surface_thickness"`
	NumRu1           int       `yaml:"num_ru1" json:"num_ru1"`
	NumRu2           int       `yaml:"num_ru2" json:"num_ru2"`
	NumO2            int       `yaml:"num_o2" json:"num_o2"`
	Steps            int       `yaml:"steps" json:"steps"`
	ExcitedLifetime  int       `yaml:"excited_lifetime" json:"excited_lifetime"`
	QuenchingRadius  float64   `yaml:"quenching_radius" json:"quenching_radius"`
	O2MoveProbMax    float64   `yaml:"o2_move_prob_max" json:"o2_move_prob_max"`
	O2MoveProbMin    float64   `yaml:"o2_move_prob_min" json:"o2_move_prob_min"`
	DensitySteepness float64   `yaml:"density_steepness" json:"density_steepness"`
	ExcitationProb   float64   `yaml:"excitation_prob" json:"excitation_prob"`
	Placement        Placement `yaml:"placement" json:"placement"`
	Seed             int64     `yaml:"seed" json:"seed"`
}

func DefaultParams() Params {
	return Params{
		GridSize:         50,
		CoreRadius:       15,
		SurfaceThickness: 5,
		NumRu1:           30,
		NumRu2:           30,
		NumO2:            180,
		Steps:            600,
		ExcitedLifetime:  30,
		QuenchingRadius:  1.8,
		O2MoveProbMax:    0.98,
		O2MoveProbMin:    0.10,
		DensitySteepness: 0.3,
		ExcitationProb:   1.0,
		Placement:        LowDensity,
		Seed:             1,
	}
}

// Center is the particle centre, the middle of the grid.
func (p Params) Center() (float64, float64) {
	c := float64(p.GridSize) / 2
	return c, c
}

func (p Params) Validate() error {
	var bad []string
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			bad = append(bad, fmt.Sprintf(format, args...))
		}
	}
	check(p.GridSize >= 2, "grid_size %d < 2", p.GridSize)
	check(p.CoreRadius > 0, "core_radius %g must be positive", p.CoreRadius)
	check(p.SurfaceThickness > 0, "surface_thickness %g must be positive", p.SurfaceThickness)
	check(p.NumRu1 >= 0 && p.NumRu2 >= 0 && p.NumO2 >= 0, "particle counts must be non-negative")
	check(p.Steps >= 0, "steps %d is negative", p.Steps)
	check(p.ExcitedLifetime >= 1, "excited_lifetime %d < 1", p.ExcitedLifetime)
	check(p.QuenchingRadius > 0, "quenching_radius %g must be positive", p.QuenchingRadius)
	check(p.O2MoveProbMin >= 0 && p.O2MoveProbMax <= 1 && p.O2MoveProbMin <= p.O2MoveProbMax,
		"move probabilities need 0 <= min (%g) <= max (%g) <= 1", p.O2MoveProbMin, p.O2MoveProbMax)
	check(p.DensitySteepness >= 0, "density_steepness %g is negative", p.DensitySteepness)
	check(p.ExcitationProb >= 0 && p.ExcitationProb <= 1, "excitation_prob %g outside [0,1]", p.ExcitationProb)
	check(p.Placement == LowDensity || p.Placement == DensityWeighted, "unknown placement %d", int(p.Placement))

	if len(bad) > 0 {
		return errors.Wrap(ErrInvalidParams, strings.Join(bad, "; "))
	}
	return nil
}

// Fields flattens the numeric parameters, keyed by their config names.
func (p Params) Fields() map[string]float64 {
	return map[string]float64{
		"grid_size":         float64(p.GridSize),
		"core_radius":       p.CoreRadius,
		"surface_thickness": p.SurfaceThickness,
		"num_ru1":           float64(p.NumRu1),
		"num_ru2":           float64(p.NumRu2),
		"num_o2":            float64(p.NumO2),
		"steps":             float64(p.Steps),
		"excited_lifetime":  float64(p.ExcitedLifetime),
		"quenching_radius":  p.QuenchingRadius,
		"o2_move_prob_max":  p.O2MoveProbMax,
		"o2_move_prob_min":  p.O2MoveProbMin,
		"density_steepness": p.DensitySteepness,
		"excitation_prob":   p.ExcitationProb,
		"seed":              float64(p.Seed),
	}
}

// Set assigns a numeric parameter by config name. Integer parameters are
// rounded.
func (p *Params) Set(key string, v float64) error {
	i := int(v + 0.5)
	if v < 0 {
		i = int(v - 0.5)
	}
	switch key {
	case "grid_size":
		p.GridSize = i
	case "core_radius":
		p.CoreRadius = v
	case "surface_thickness":
		p.SurfaceThickness = v
	case "num_ru1":
		p.NumRu1 = i
	case "num_ru2":
		p.NumRu2 = i
	case "num_o2":
		p.NumO2 = i
	case "steps":
		p.Steps = i
	case "excited_lifetime":
		p.ExcitedLifetime = i
	case "quenching_radius":
		p.QuenchingRadius = v
	case "o2_move_prob_max":
		p.O2MoveProbMax = v
	case "o2_move_prob_min":
		p.O2MoveProbMin = v
	case "density_steepness":
		p.DensitySteepness = v
	case "excitation_prob":
		p.ExcitationProb = v
	case "seed":
		p.Seed = int64(i)
	default:
		return errors.Wrapf(ErrInvalidParams, "unknown parameter %q (have %s)", key, strings.Join(ParamKeys(), ", "))
	}
	return nil
}

func ParamKeys() []string {
	keys := make([]string, 0, 14)
	for k := range DefaultParams().Fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
