package quench

import "github.com/pkg/errors"

const (
	complexAttempts       = 300
	lowDensityAttempts    = 100
	weightedAttempts      = 10
	lowDensityThreshold   = 0.3
	quencherShortfallWarn = 0.8
)

type PlacementReport struct {
	Ru1, Ru2, O2 int
}

// Place scatters complexes and quenchers by rejection sampling over
// [0, grid-1]². Ru1 lands in the surface shell, Ru2 inside the core.
// Shortfalls are logged. With RequireComplexes an empty species is an
// error.
func (s *Simulation) Place() (PlacementReport, error) {
	p := s.params
	s.complexes = s.complexes[:0]
	s.quenchers = s.quenchers[:0]
	s.tick = 0

	ru1 := s.placeComplexes(p.NumRu1, Surface, p.inShell)
	ru2 := s.placeComplexes(p.NumRu2, Core, p.inCore)
	s.complexes = append(ru1, ru2...)

	s.quenchers = s.placeQuenchers()
	if n := len(s.quenchers); float64(n) < quencherShortfallWarn*float64(p.NumO2) {
		s.log.Warn("O2 placement shortfall", "placed", n, "requested", p.NumO2, "placement", p.Placement)
	}
	s.index.rebuild(s.quenchers)

	s.report = PlacementReport{Ru1: len(ru1), Ru2: len(ru2), O2: len(s.quenchers)}
	s.placed = true

	if len(ru1) == 0 || len(ru2) == 0 {
		if s.strict {
			return s.report, errors.Wrapf(ErrPlacement, "ru1=%d ru2=%d", len(ru1), len(ru2))
		}
		s.log.Warn("a species has no complexes; its quantum yield is 0", "ru1", len(ru1), "ru2", len(ru2))
	}
	return s.report, nil
}

func (s *Simulation) uniform() (float64, float64) {
	limit := float64(s.params.GridSize - 1)
	return s.rng.Float64() * limit, s.rng.Float64() * limit
}

func (s *Simulation) placeComplexes(n int, sp Species, accept func(x, y float64) bool) []*Complex {
	out := make([]*Complex, 0, n)
	for attempt := 0; len(out) < n && attempt < n*complexAttempts; attempt++ {
		x, y := s.uniform()
		if accept(x, y) {
			out = append(out, &Complex{X: x, Y: y, Species: sp})
		}
	}
	if len(out) < n {
		s.log.Warn("complex placement shortfall", "species", sp.String(), "placed", len(out), "requested", n)
	}
	return out
}

func (s *Simulation) placeQuenchers() []*Quencher {
	p := s.params
	n := p.NumO2
	out := make([]*Quencher, 0, n)

	switch p.Placement {
	case DensityWeighted:
		for attempt := 0; len(out) < n && attempt < n*weightedAttempts; attempt++ {
			x, y := s.uniform()
			if s.rng.Float64() < p.Density(x, y) {
				out = append(out, &Quencher{X: x, Y: y})
			}
		}
	default:
		for attempt := 0; len(out) < n && attempt < n*lowDensityAttempts; attempt++ {
			x, y := s.uniform()
			if p.Density(x, y) < lowDensityThreshold {
				out = append(out, &Quencher{X: x, Y: y})
			}
		}
	}
	return out
}
