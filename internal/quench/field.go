package quench

import "math"

// Density is the polymer density at (x, y): a sigmoid in the distance from
// the particle centre that is ~1 inside the core radius and ~0 outside.
func (p Params) Density(x, y float64) float64 {
	cx, cy := p.Center()
	d := math.Hypot(x-cx, y-cy)
	e := p.DensitySteepness * (d - p.CoreRadius)
	if e > 700 {
		e = 700
	} else if e < -700 {
		e = -700
	}
	return 1 / (1 + math.Exp(e))
}

// MoveProbability interpolates linearly from O2MoveProbMax in free solvent
// to O2MoveProbMin in fully dense polymer.
func (p Params) MoveProbability(density float64) float64 {
	prob := p.O2MoveProbMax - density*(p.O2MoveProbMax-p.O2MoveProbMin)
	return math.Max(p.O2MoveProbMin, math.Min(p.O2MoveProbMax, prob))
}

// inCore reports r < CoreRadius. A point exactly on the radius belongs to
// the surface shell.
func (p Params) inCore(x, y float64) bool {
	cx, cy := p.Center()
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy < p.CoreRadius*p.CoreRadius
}

func (p Params) inShell(x, y float64) bool {
	if p.inCore(x, y) {
		return false
	}
	cx, cy := p.Center()
	return math.Hypot(x-cx, y-cy) < p.CoreRadius+p.SurfaceThickness
}
