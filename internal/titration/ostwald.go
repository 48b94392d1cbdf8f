package titration

import (
	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/stats"
)

type OstwaldParams struct {
	InitialVolume float64 // mL
	Stock         float64 // N
	MolarMass     float64 // g/mol
}

func DefaultOstwaldParams() OstwaldParams {
	return OstwaldParams{InitialVolume: 60, Stock: 0.1, MolarMass: 60.052}
}

// GramsPerLiter is the diluted acid concentration after adding volume mL.
func (p OstwaldParams) GramsPerLiter(volume float64) float64 {
	moles := volume * p.Stock / 1000
	return moles * p.MolarMass * 1000 / (p.InitialVolume + volume)
}

type OstwaldPoint struct {
	Volume        float64
	Conductance   float64
	Concentration float64
	InvG          float64
	GC            float64
}

// OstwaldResult holds the 1/G = 1/G0 + (G*c)/(Ka*G0²) fit.
type OstwaldResult struct {
	Points []OstwaldPoint
	Fit    stats.LinearFit
	G0     float64
	Ka     float64
}

func Ostwald(volumes, conductance []float64, p OstwaldParams) (OstwaldResult, error) {
	if len(volumes) != len(conductance) {
		return OstwaldResult{}, ErrLengthMismatch
	}

	var res OstwaldResult
	var xs, ys []float64
	for i, v := range volumes {
		c := p.GramsPerLiter(v)
		g := conductance[i]
		if c == 0 || g == 0 {
			continue
		}
		pt := OstwaldPoint{Volume: v, Conductance: g, Concentration: c, InvG: 1 / g, GC: g * c}
		res.Points = append(res.Points, pt)
		xs = append(xs, pt.GC)
		ys = append(ys, pt.InvG)
	}

	fit, err := stats.Linregress(xs, ys)
	if err != nil {
		if errors.Cause(err) == stats.ErrTooFewPoints {
			return OstwaldResult{}, errors.Wrapf(ErrTooFewPoints, "ostwald fit has %d usable points", len(xs))
		}
		return OstwaldResult{}, errors.Wrap(err, "ostwald fit")
	}
	res.Fit = fit
	if fit.Intercept != 0 {
		res.G0 = 1 / fit.Intercept
		if fit.Slope != 0 {
			res.Ka = 1 / (fit.Slope * res.G0 * res.G0)
		}
	}
	return res, nil
}
