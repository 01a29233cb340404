package utils

import (
	"sort"

	"github.com/nci/biopar/biopar"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const DefaultDecileCount = 9

// RasterStats summarises the valid cells of a retrieval.
type RasterStats struct {
	Count   int       `json:"count"`
	Masked  int       `json:"masked"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"std_dev"`
	Deciles []float64 `json:"deciles,omitempty"`
}

// ComputeStats returns the statistics of the valid cells. decileCount
// quantiles are taken at i/(decileCount+1) for i in 1..decileCount.
func ComputeStats(p *biopar.ParameterRaster, decileCount int) RasterStats {
	values := make([]float64, 0, len(p.Data))
	for i, v := range p.Data {
		if p.Valid[i] {
			values = append(values, v)
		}
	}

	st := RasterStats{Count: len(values), Masked: len(p.Data) - len(values)}
	if len(values) == 0 {
		return st
	}

	st.Min = floats.Min(values)
	st.Max = floats.Max(values)
	st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		st.StdDev = 0
	}

	if decileCount > 0 {
		sort.Float64s(values)
		st.Deciles = make([]float64, decileCount)
		for i := range st.Deciles {
			q := float64(i+1) / float64(decileCount+1)
			st.Deciles[i] = stat.Quantile(q, stat.Empirical, values, nil)
		}
	}
	return st
}
