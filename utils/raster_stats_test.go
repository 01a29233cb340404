package utils

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/nci/biopar/biopar"
)

func TestComputeStats(t *testing.T) {
	p := biopar.NewParameterRaster("LAI", "lai3", 1, 12, -9999)
	for i := 0; i < 10; i++ {
		p.Data[i] = float64(i + 1)
		p.Valid[i] = true
	}
	p.Data[10] = -9999
	p.Data[11] = -9999

	st := ComputeStats(p, 3)
	expected := RasterStats{
		Count:   10,
		Masked:  2,
		Min:     1,
		Max:     10,
		Mean:    5.5,
		StdDev:  math.Sqrt(82.5 / 9),
		Deciles: []float64{3, 5, 8},
	}
	if diff := cmp.Diff(expected, st, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	p := biopar.NewParameterRaster("FAPAR", "fapar8", 2, 2, -9999)
	st := ComputeStats(p, DefaultDecileCount)
	if st.Count != 0 || st.Masked != 4 || st.Deciles != nil {
		t.Errorf("empty stats test failed, actual %+v", st)
	}

	p = biopar.NewParameterRaster("FAPAR", "fapar8", 1, 1, -9999)
	p.Data[0] = 0.5
	p.Valid[0] = true
	st = ComputeStats(p, 0)
	if st.StdDev != 0 || st.Mean != 0.5 || st.Min != 0.5 || st.Max != 0.5 {
		t.Errorf("single value stats test failed, actual %+v", st)
	}
}
