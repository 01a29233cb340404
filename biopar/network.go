package biopar

import "math"

const (
	NumHiddenNeurons = 5
	NumAngleFeatures = 3
)

// Tansig is the hidden-unit squashing function the published networks were
// fitted with. It equals tanh(x) analytically; keep this form so outputs
// match the reference implementation.
func Tansig(x float64) float64 {
	return 2/(1+math.Exp(-2*x)) - 1
}

// NeuronWeights is a bias plus one weight per input.
type NeuronWeights struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

func (w NeuronWeights) clone() NeuronWeights {
	return NeuronWeights{Bias: w.Bias, Weights: append([]float64(nil), w.Weights...)}
}

// EvaluateAffine returns Bias + sum(Weights[i]*inputs[i]) accumulated in
// input order. inputs must be at least as long as Weights.
func EvaluateAffine(inputs []float64, w NeuronWeights) float64 {
	sum := w.Bias
	for i, wi := range w.Weights {
		// float64() rounds the product, preventing a fused multiply-add.
		sum += float64(wi * inputs[i])
	}
	return sum
}

// HiddenLayer evaluates independent tansig units over a shared input vector.
type HiddenLayer []NeuronWeights

func (l HiddenLayer) Evaluate(inputs []float64, out []float64) {
	for j, w := range l {
		out[j] = Tansig(EvaluateAffine(inputs, w))
	}
}

// OutputLayer is the single linear output unit.
type OutputLayer NeuronWeights

func (l OutputLayer) Evaluate(hidden []float64) float64 {
	return EvaluateAffine(hidden, NeuronWeights(l))
}
