package kinematics

import "math"

// Input wraps the value of a mutable joint.
//   - revolute inputs are in radians.
//   - prismatic inputs are in the model's length units.
type Input struct {
	Value float64
}

// Limit represents the limits of motion for a joint.
type Limit struct {
	Min float64
	Max float64
}

// Unbounded returns a limit with no bounds in either direction.
func Unbounded() Limit {
	return Limit{Min: math.Inf(-1), Max: math.Inf(1)}
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, input := range inputs {
		floats[i] = input.Value
	}
	return floats
}

// InterpolateInputs will return a set of joint values that are the specified percent
// between the two given sets of values. For example, setting by to 0.5 will return
// the values halfway between the inputs, and 0.25 would return one quarter of the
// way from "from" to "to".
func InterpolateInputs(from, to []Input, by float64) []Input {
	var newVals []Input
	for i, j1 := range from {
		newVals = append(newVals, Input{j1.Value + ((to[i].Value - j1.Value) * by)})
	}
	return newVals
}
