package titration

// Reference measurements bundled with the CLI so every fit can be shown
// without an input file.
var (
	// SDS conductometric titration: mL of 0.04 M SDS into 60 mL water.
	SampleSDSVolume = []float64{
		0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5, 5.5, 6, 6.5, 7, 7.5, 8, 8.5, 9, 9.5,
		10, 10.5, 11, 11.5, 12, 12.5, 13, 13.5, 14, 14.5, 15, 15.5, 16, 16.5, 17, 17.5,
		18, 18.5, 19, 19.5, 20, 20.5, 21, 21.5, 22, 22.5, 23, 23.5, 24, 24.5, 25,
	}
	SampleSDSConductivity = []float64{
		6.2, 27.5, 38.3, 58.5, 80.7, 102.3, 122.8, 145.4, 165.4, 185.9, 204, 223, 241,
		261, 275, 291, 305, 318, 332, 344, 357, 368, 379, 391, 401, 410, 419, 430, 439,
		448, 457, 465, 474, 481, 490, 496, 505, 512, 521, 526, 532, 540, 546, 552, 558,
		565, 571, 576, 582, 587, 592,
	}

	// Fluorescence quenching: µL of quencher, peak maxima and integrated areas.
	SampleQuencherVolume = []float64{0, 50, 100, 150, 200}
	SampleIntensityMax   = []float64{297200, 289850, 285050, 279570, 277290}
	SampleIntensityArea  = []float64{2.56419, 2.51063, 2.48472, 2.41514, 2.4122}
)
