// Package titration fits conductometric and fluorescence titration data:
// the critical micelle concentration breakpoint, Ostwald dilution and
// Stern-Volmer quenching.
package titration
