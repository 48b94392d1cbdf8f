package quench

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/mroth/weightedrand"
	"github.com/pkg/errors"
)

// Observer is notified after every tick with the running tallies.
type Observer interface {
	OnTick(step int, ru1, ru2 Tally)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, ru1, ru2 Tally)

func (f ObserverFunc) OnTick(step int, ru1, ru2 Tally) { f(step, ru1, ru2) }

type displacement struct{ dx, dy float64 }

type Simulation struct {
	params    Params
	rng       *rand.Rand
	moves     *weightedrand.Chooser
	index     *cellIndex
	complexes []*Complex
	quenchers []*Quencher
	observers []Observer
	log       *slog.Logger
	strict    bool
	placed    bool
	tick      int
	report    PlacementReport
}

func New(p Params) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// dx and dy are independent and uniform over {-1, 0, 1}, zero move
	// included.
	var choices []weightedrand.Choice
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			choices = append(choices, weightedrand.NewChoice(displacement{float64(dx), float64(dy)}, 1))
		}
	}
	moves, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, errors.Wrap(err, "displacement chooser")
	}

	return &Simulation{
		params: p,
		rng:    rand.New(rand.NewSource(p.Seed)),
		moves:  moves,
		index:  newCellIndex(p.GridSize, p.QuenchingRadius),
		log:    slog.Default(),
	}, nil
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) SetLogger(l *slog.Logger) {
	if l != nil {
		s.log = l
	}
}

// RequireComplexes turns an empty species after placement into an
// ErrPlacement failure instead of a warning.
func (s *Simulation) RequireComplexes() { s.strict = true }

func (s *Simulation) Params() Params         { return s.params }
func (s *Simulation) Complexes() []*Complex  { return s.complexes }
func (s *Simulation) Quenchers() []*Quencher { return s.quenchers }
func (s *Simulation) Tick() int              { return s.tick }

// Run places the particles and advances Steps ticks, checking ctx between
// ticks.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if !s.placed {
		if _, err := s.Place(); err != nil {
			return nil, err
		}
	}

	for s.tick < s.params.Steps {
		select {
		case <-ctx.Done():
			return nil, &StepError{Step: s.tick, Err: ctx.Err()}
		default:
		}
		s.Step()
	}

	res := s.Result()
	res.Runtime = time.Since(start)
	return res, nil
}

// Step advances one tick: excite, move, quench, relax.
func (s *Simulation) Step() {
	p := s.params

	for _, c := range s.complexes {
		if c.Phase == Ground && s.rng.Float64() < p.ExcitationProb {
			c.excite(p.ExcitedLifetime)
		}
	}

	limit := float64(p.GridSize - 1)
	for _, q := range s.quenchers {
		if s.rng.Float64() < p.MoveProbability(p.Density(q.X, q.Y)) {
			d := s.moves.PickSource(s.rng).(displacement)
			q.moveBy(d.dx, d.dy, limit)
		}
	}

	s.index.rebuild(s.quenchers)
	r2 := p.QuenchingRadius * p.QuenchingRadius
	for _, c := range s.complexes {
		if c.Phase != Excited {
			continue
		}
		if i, d2 := s.index.nearest(s.quenchers, c.X, c.Y, r2); i >= 0 {
			c.quench(math.Sqrt(d2), p.ExcitedLifetime)
			s.quenchers[i].Quenches++
		}
	}

	for _, c := range s.complexes {
		c.relax(p.ExcitedLifetime)
	}

	s.tick++
	if len(s.observers) > 0 {
		ru1, ru2 := s.tallies()
		for _, o := range s.observers {
			o.OnTick(s.tick, ru1, ru2)
		}
	}
}
