// Package spectroscopy analyses photoluminescence and UV-Vis spectra:
// smoothing, residuals, peak picking and multi-scan averaging.
package spectroscopy
