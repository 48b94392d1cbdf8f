package quench

// Trace records the running quantum yields after every tick.
type Trace struct {
	Ru1 []float64
	Ru2 []float64
}

func (t *Trace) OnTick(_ int, ru1, ru2 Tally) {
	t.Ru1 = append(t.Ru1, ru1.QY())
	t.Ru2 = append(t.Ru2, ru2.QY())
}
