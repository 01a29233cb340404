package biopar

import (
	"fmt"
	"math"
)

// NormalizationRange is the physical (Min, Max) interval that the network
// maps onto [-1, 1]. Values outside the interval are not clamped.
type NormalizationRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Normalize maps x from [Min, Max] onto [-1, 1]. Inputs already on
// [-1, 1] pass through unchanged.
func (r NormalizationRange) Normalize(x float64) float64 {
	if r.isUnit() {
		return x
	}
	return 2*(x-r.Min)/(r.Max-r.Min) - 1
}

// Denormalize is the inverse of Normalize.
func (r NormalizationRange) Denormalize(y float64) float64 {
	if r.isUnit() {
		return y
	}
	return 0.5*(y+1)*(r.Max-r.Min) + r.Min
}

func (r NormalizationRange) isUnit() bool {
	return r.Min == -1 && r.Max == 1
}

// Midpoint is the physical value that normalizes to 0.
func (r NormalizationRange) Midpoint() float64 {
	return r.Min + (r.Max-r.Min)/2
}

func (r NormalizationRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return &ConfigurationError{Reason: fmt.Sprintf("non-finite normalization range [%v, %v]", r.Min, r.Max)}
	}
	if r.Max <= r.Min {
		return &ConfigurationError{Reason: fmt.Sprintf("normalization range max %v must be greater than min %v", r.Max, r.Min)}
	}
	return nil
}
