package m

// Line is one labelled sample.
type Line struct {
	Inputs  []float64
	Targets []float64
}
type Lines []Line

// XOR returns the four-sample exclusive-or truth table.
func XOR() Lines {
	return Lines{
		{Inputs: []float64{0, 0}, Targets: []float64{0}},
		{Inputs: []float64{0, 1}, Targets: []float64{1}},
		{Inputs: []float64{1, 0}, Targets: []float64{1}},
		{Inputs: []float64{1, 1}, Targets: []float64{0}},
	}
}

// Split returns the inputs and targets as parallel slices.
func (lines Lines) Split() (inputs, targets [][]float64) {
	inputs = make([][]float64, len(lines))
	targets = make([][]float64, len(lines))
	for i, line := range lines {
		inputs[i] = line.Inputs
		targets[i] = line.Targets
	}
	return inputs, targets
}
