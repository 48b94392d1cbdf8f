// Package stats holds the small amount of inferential statistics the lab
// tools share: straight-line and polynomial least squares with the
// uncertainties students report, paired t-tests, one-way ANOVA and Pearson
// correlation. The heavy lifting is done by gonum.
package stats
