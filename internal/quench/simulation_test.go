package quench_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/chemlab/internal/quench"
)

func smallParams() quench.Params {
	p := quench.DefaultParams()
	p.NumO2 = 80
	p.Steps = 120
	p.Seed = 7
	return p
}

var _ = Describe("Simulation", func() {
	var p quench.Params

	BeforeEach(func() {
		p = smallParams()
	})

	It("rejects invalid parameters", func() {
		p.GridSize = 1
		_, err := quench.New(p)
		Expect(errors.Is(err, quench.ErrInvalidParams)).To(BeTrue())
	})

	Describe("placement", func() {
		It("puts Ru2 inside the core and Ru1 in the shell", func() {
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			rep, err := s.Place()
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Ru1).To(Equal(p.NumRu1))
			Expect(rep.Ru2).To(Equal(p.NumRu2))

			cx, cy := p.Center()
			for _, c := range s.Complexes() {
				r := math.Hypot(c.X-cx, c.Y-cy)
				if c.Species == quench.Core {
					Expect(r).To(BeNumerically("<", p.CoreRadius))
				} else {
					Expect(r).To(BeNumerically(">=", p.CoreRadius))
					Expect(r).To(BeNumerically("<", p.CoreRadius+p.SurfaceThickness))
				}
			}
		})

		It("keeps low-density O2 outside the particle", func() {
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Place()
			Expect(err).NotTo(HaveOccurred())
			for _, q := range s.Quenchers() {
				Expect(p.Density(q.X, q.Y)).To(BeNumerically("<", 0.3))
			}
		})

		It("fails under RequireComplexes when the shell cannot be reached", func() {
			p.CoreRadius = 40
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			s.RequireComplexes()
			_, err = s.Run(context.Background())
			Expect(errors.Is(err, quench.ErrPlacement)).To(BeTrue())
		})

		It("only warns for single runs with an empty species", func() {
			p.CoreRadius = 40
			p.Steps = 5
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Placed.Ru1).To(BeZero())
			Expect(res.Ru1.QY()).To(BeZero())
		})
	})

	Describe("running", func() {
		It("keeps the event accounting consistent", func() {
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(p.Steps))

			for _, t := range []quench.Tally{res.Ru1, res.Ru2} {
				Expect(t.Events()).To(Equal(t.Emissions + t.Quenched))
				Expect(t.Events()).To(BeNumerically(">", 0))
				Expect(t.QY()).To(BeNumerically(">=", 0))
				Expect(t.QY()).To(BeNumerically("<=", 1))
				Expect(t.Excitations).To(BeNumerically(">=", t.Events()))
			}

			quenches := 0
			for _, q := range res.O2 {
				Expect(q.X).To(BeNumerically(">=", 0))
				Expect(q.Y).To(BeNumerically(">=", 0))
				Expect(q.X).To(BeNumerically("<=", p.GridSize-1))
				Expect(q.Y).To(BeNumerically("<=", p.GridSize-1))
				quenches += q.Quenches
			}
			Expect(quenches).To(Equal(res.Ru1.Quenched + res.Ru2.Quenched))
			Expect(res.Quenchers.Quenches).To(Equal(quenches))
		})

		It("is reproducible for a fixed seed", func() {
			run := func() *quench.Result {
				s, err := quench.New(p)
				Expect(err).NotTo(HaveOccurred())
				res, err := s.Run(context.Background())
				Expect(err).NotTo(HaveOccurred())
				return res
			}
			a, b := run(), run()
			Expect(a.Ru1).To(Equal(b.Ru1))
			Expect(a.Ru2).To(Equal(b.Ru2))
			Expect(a.Histogram).To(Equal(b.Histogram))
		})

		It("emits exactly once per lifetime without quenchers", func() {
			p.NumO2 = 0
			p.ExcitedLifetime = 10
			p.Steps = 100
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ru1.Quenched).To(BeZero())
			Expect(res.Ru1.Emissions).To(Equal(p.NumRu1 * 10))
			Expect(res.Ru1.QY()).To(Equal(1.0))
			Expect(res.Ru1.MeanDuration).To(Equal(10.0))
		})

		It("never quenches and emits a complex in the same tick", func() {
			p.ExcitedLifetime = 1
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Place()
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 50; i++ {
				before := make([]int, len(s.Complexes()))
				for j, c := range s.Complexes() {
					before[j] = c.Emissions + c.Quenched
				}
				s.Step()
				for j, c := range s.Complexes() {
					Expect(c.Emissions + c.Quenched - before[j]).To(BeNumerically("<=", 1))
				}
			}
		})

		It("matches an all-pairs lowest-index scan when quenching", func() {
			p.NumO2 = 400
			p.Placement = quench.DensityWeighted
			p.ExcitedLifetime = 1000
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Place()
			Expect(err).NotTo(HaveOccurred())

			r2 := p.QuenchingRadius * p.QuenchingRadius
			for i := 0; i < 40; i++ {
				// quenching happens after the move phase, so the
				// post-step positions are the ones it saw
				qBefore := make([]int, len(s.Quenchers()))
				for j, q := range s.Quenchers() {
					qBefore[j] = q.Quenches
				}
				dBefore := make([]int, len(s.Complexes()))
				for j, c := range s.Complexes() {
					dBefore[j] = len(c.Distances)
				}
				s.Step()

				for j, c := range s.Complexes() {
					if len(c.Distances) == dBefore[j] {
						continue
					}
					d := c.Distances[len(c.Distances)-1]
					want := -1
					for k, q := range s.Quenchers() {
						dx, dy := c.X-q.X, c.Y-q.Y
						if dx*dx+dy*dy < r2 {
							want = k
							break
						}
					}
					Expect(want).To(BeNumerically(">=", 0))
					w := s.Quenchers()[want]
					Expect(math.Hypot(c.X-w.X, c.Y-w.Y)).To(BeNumerically("~", d, 1e-9))
					Expect(w.Quenches).To(BeNumerically(">", qBefore[want]))
				}
			}
		})

		It("stops with a StepError when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			s.AddObserver(quench.ObserverFunc(func(step int, _, _ quench.Tally) {
				if step == 10 {
					cancel()
				}
			}))
			_, err = s.Run(ctx)

			var se *quench.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(10))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})

		It("feeds observers once per tick", func() {
			p.Steps = 25
			s, err := quench.New(p)
			Expect(err).NotTo(HaveOccurred())
			trace := &quench.Trace{}
			s.AddObserver(trace)
			res, err := s.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(trace.Ru1).To(HaveLen(25))
			Expect(trace.Ru2[24]).To(Equal(res.Ru2.QY()))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs consecutive seeds and summarises them", func() {
		p := smallParams()
		p.Steps = 40
		e := quench.NewEnsemble(p, 4, 100)
		e.SetWorkers(2)
		results, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		for i, r := range results {
			Expect(r.Params.Seed).To(Equal(int64(100 + i)))
		}

		single := p
		single.Seed = 102
		s, err := quench.New(single)
		Expect(err).NotTo(HaveOccurred())
		want, err := s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results[2].Ru1).To(Equal(want.Ru1))

		sum := quench.Summarize(results)
		Expect(sum.Runs).To(Equal(4))
		Expect(sum.Ru1.Mean).To(BeNumerically(">=", 0))
		Expect(sum.Ru1.Mean).To(BeNumerically("<=", 1))
		Expect(sum.Diff.Mean).To(BeNumerically("~", sum.Ru1.Mean-sum.Ru2.Mean, 1e-12))
	})
})
