package quench

import "math"

type Species int

const (
	Surface Species = iota // Ru1
	Core                   // Ru2
)

func (s Species) String() string {
	if s == Core {
		return "Ru2"
	}
	return "Ru1"
}

type Phase int

const (
	Ground Phase = iota
	Excited
)

func (p Phase) String() string {
	if p == Excited {
		return "excited"
	}
	return "ground"
}

type Complex struct {
	X, Y      float64
	Species   Species
	Phase     Phase
	Timer     int
	Emissions int
	Quenched  int
	Excited   int // total excitations

	// Durations holds the ticks spent excited before each emission or
	// quench; Distances the O2 separation at each quench.
	Durations []int
	Distances []float64
}

func (c *Complex) excite(lifetime int) {
	c.Phase = Excited
	c.Timer = lifetime
	c.Excited++
}

func (c *Complex) quench(dist float64, lifetime int) {
	c.Durations = append(c.Durations, lifetime-c.Timer)
	c.Distances = append(c.Distances, dist)
	c.Phase = Ground
	c.Timer = 0
	c.Quenched++
}

// relax counts down the excited timer and emits when it runs out.
func (c *Complex) relax(lifetime int) bool {
	if c.Phase != Excited {
		return false
	}
	c.Timer--
	if c.Timer > 0 {
		return false
	}
	c.Durations = append(c.Durations, lifetime)
	c.Phase = Ground
	c.Timer = 0
	c.Emissions++
	return true
}

func (c *Complex) QY() float64 { return QuantumYield(c.Emissions, c.Quenched) }

func (c *Complex) MeanDuration() float64 {
	if len(c.Durations) == 0 {
		return 0
	}
	sum := 0
	for _, d := range c.Durations {
		sum += d
	}
	return float64(sum) / float64(len(c.Durations))
}

type Quencher struct {
	X, Y       float64
	Quenches   int
	PathLength float64
}

func (q *Quencher) moveBy(dx, dy, limit float64) {
	nx := math.Max(0, math.Min(limit, q.X+dx))
	ny := math.Max(0, math.Min(limit, q.Y+dy))
	q.PathLength += math.Hypot(nx-q.X, ny-q.Y)
	q.X, q.Y = nx, ny
}

// MeanSpeed is the path length per tick.
func (q *Quencher) MeanSpeed(steps int) float64 {
	if steps <= 0 {
		return 0
	}
	return q.PathLength / float64(steps)
}

// QuantumYield is emissions/(emissions+quenched), 0 without events.
func QuantumYield(emissions, quenched int) float64 {
	total := emissions + quenched
	if total == 0 {
		return 0
	}
	return float64(emissions) / float64(total)
}
