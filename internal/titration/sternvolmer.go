package titration

import (
	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/stats"
)

type SternVolmerParams struct {
	InitialVolume float64 // mL
	Stock         float64 // M
}

func DefaultSternVolmerParams() SternVolmerParams {
	return SternVolmerParams{InitialVolume: 3, Stock: 1e-4}
}

// QuencherConcentration converts µL of quencher stock added to the sample.
func (p SternVolmerParams) QuencherConcentration(microliters float64) float64 {
	ml := microliters / 1000
	return ml * p.Stock / (p.InitialVolume + ml)
}

type SternVolmerResult struct {
	Concentration []float64
	Ratio         []float64 // F0/F
	Fit           stats.LinearFit
}

func (r SternVolmerResult) Ksv() float64 { return r.Fit.Slope }

// SternVolmer fits F0/F = 1 + Ksv[Q]; the first intensity is F0.
func SternVolmer(microliters, intensity []float64, p SternVolmerParams) (SternVolmerResult, error) {
	if len(microliters) != len(intensity) {
		return SternVolmerResult{}, ErrLengthMismatch
	}
	if len(intensity) == 0 || intensity[0] == 0 {
		return SternVolmerResult{}, errors.Wrap(ErrReference, "F0 must be a non-zero first intensity")
	}

	res := SternVolmerResult{
		Concentration: make([]float64, len(intensity)),
		Ratio:         make([]float64, len(intensity)),
	}
	f0 := intensity[0]
	for i, f := range intensity {
		if f == 0 {
			return SternVolmerResult{}, errors.Wrapf(ErrReference, "zero intensity at point %d", i)
		}
		res.Concentration[i] = p.QuencherConcentration(microliters[i])
		res.Ratio[i] = f0 / f
	}

	fit, err := stats.Linregress(res.Concentration, res.Ratio)
	if err != nil {
		return SternVolmerResult{}, errors.Wrap(err, "stern-volmer fit")
	}
	res.Fit = fit
	return res, nil
}
