// Package quench simulates oxygen quenching of photoexcited ruthenium
// complexes embedded in a polymer particle.
//
// Complexes sit either in the dense core (Ru2) or in a thin shell at the
// core surface (Ru1). O2 molecules random-walk on the grid with a move
// probability that falls as the sigmoid polymer density rises, so the core
// is harder to reach. Each tick every ground-state complex may be excited,
// every O2 may move, excited complexes within the quenching radius of an O2
// return to ground without emitting, and the remaining excited complexes
// count down their lifetime and emit. The quantum yield of a species is
// emissions / (emissions + quenched).
package quench
