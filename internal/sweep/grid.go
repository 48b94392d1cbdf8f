package sweep

import (
	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/quench"
)

// Axis names as they appear in sweep CSV headers.
const (
	NumO2            = "NUM_O2"
	DensitySteepness = "DENSITY_STEEPNESS"
	O2MoveProbMin    = "O2_MOVE_PROB_MIN"
	ExcitedLifetime  = "EXCITED_LIFETIME"
	CoreRadius       = "CORE_RADIUS"
)

var paramKeys = map[string]string{
	NumO2:            "num_o2",
	DensitySteepness: "density_steepness",
	O2MoveProbMin:    "o2_move_prob_min",
	ExcitedLifetime:  "excited_lifetime",
	CoreRadius:       "core_radius",
}

var ErrGrid = errors.New("sweep: invalid grid")

type Axis struct {
	Name   string    `yaml:"name" json:"name"`
	Values []float64 `yaml:"values" json:"values"`
}

// Grid is a cartesian parameter grid. Points vary the last axis fastest.
type Grid struct {
	Axes []Axis `yaml:"axes" json:"axes"`
}

func DefaultGrid() Grid {
	return Grid{Axes: []Axis{
		{Name: NumO2, Values: []float64{100, 180, 250}},
		{Name: DensitySteepness, Values: []float64{0.2, 0.3, 0.5}},
		{Name: O2MoveProbMin, Values: []float64{0.05, 0.10, 0.15}},
		{Name: ExcitedLifetime, Values: []float64{20, 30, 40}},
	}}
}

func (g Grid) Clone() Grid {
	out := Grid{Axes: make([]Axis, len(g.Axes))}
	for i, a := range g.Axes {
		out.Axes[i] = Axis{Name: a.Name, Values: append([]float64(nil), a.Values...)}
	}
	return out
}

func (g Grid) Validate() error {
	if len(g.Axes) == 0 {
		return errors.Wrap(ErrGrid, "no axes")
	}
	seen := make(map[string]bool, len(g.Axes))
	for _, a := range g.Axes {
		if _, ok := paramKeys[a.Name]; !ok {
			return errors.Wrapf(ErrGrid, "unknown axis %q", a.Name)
		}
		if seen[a.Name] {
			return errors.Wrapf(ErrGrid, "axis %q listed twice", a.Name)
		}
		seen[a.Name] = true
		if len(a.Values) == 0 {
			return errors.Wrapf(ErrGrid, "axis %q has no values", a.Name)
		}
	}
	return nil
}

func (g Grid) Names() []string {
	names := make([]string, len(g.Axes))
	for i, a := range g.Axes {
		names[i] = a.Name
	}
	return names
}

func (g Grid) Size() int {
	if len(g.Axes) == 0 {
		return 0
	}
	n := 1
	for _, a := range g.Axes {
		n *= len(a.Values)
	}
	return n
}

// Points enumerates the grid; each point holds one value per axis, in axis
// order.
func (g Grid) Points() [][]float64 {
	if len(g.Axes) == 0 {
		return nil
	}
	out := make([][]float64, 0, g.Size())
	g.walk(0, make([]float64, 0, len(g.Axes)), &out)
	return out
}

func (g Grid) walk(depth int, current []float64, out *[][]float64) {
	if depth == len(g.Axes) {
		*out = append(*out, append([]float64(nil), current...))
		return
	}
	for _, v := range g.Axes[depth].Values {
		g.walk(depth+1, append(current, v), out)
	}
}

// Apply sets the point's axis values on a copy of base.
func (g Grid) Apply(base quench.Params, point []float64) (quench.Params, error) {
	if len(point) != len(g.Axes) {
		return base, errors.Wrapf(ErrGrid, "point has %d values for %d axes", len(point), len(g.Axes))
	}
	p := base
	for i, a := range g.Axes {
		key, ok := paramKeys[a.Name]
		if !ok {
			return base, errors.Wrapf(ErrGrid, "unknown axis %q", a.Name)
		}
		if err := p.Set(key, point[i]); err != nil {
			return base, err
		}
	}
	return p, nil
}
