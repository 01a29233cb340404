package biopar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Outputs for all-zero normalized inputs, from an independent evaluation of
// the published coefficients.
var midpointOutputs = map[string]float64{
	"fapar8": 0.5531004318351633,
	"fapar3": 0.37601427661694947,
	"lai8":   0.8021046422200563,
	"lai3":   0.7755241432175488,
}

func mustVariant(t *testing.T, name string) *VariantConfig {
	cfg, err := Variant(name)
	require.NoError(t, err)
	return cfg
}

// midpointScene builds a 1x1 raster and angles whose normalized inputs are
// all (close to) zero.
func midpointScene(cfg *VariantConfig) (*Raster, SceneAngles) {
	ranges := cfg.InputRanges()
	r := NewRaster(1, 1)
	for b, band := range cfg.Bands() {
		r.AddBand(band, []float64{ranges[b].Midpoint() / DefaultScaleFactor})
	}
	nb := len(cfg.Bands())
	toDeg := func(cosine float64) float64 { return math.Acos(cosine) / degToRad }
	return r, SceneAngles{
		ViewZenith:      toDeg(ranges[nb].Midpoint()),
		SunZenith:       toDeg(ranges[nb+1].Midpoint()),
		RelativeAzimuth: toDeg(ranges[nb+2].Midpoint()),
	}
}

func TestEvaluateNormalizedAtZero(t *testing.T) {
	for name, want := range midpointOutputs {
		cfg := mustVariant(t, name)

		out := cfg.Output()
		acc := out.Bias
		for j, w := range cfg.Hidden() {
			acc += float64(out.Weights[j] * Tansig(w.Bias))
		}
		handRolled := cfg.OutputRange().Denormalize(acc)

		got := cfg.EvaluateNormalized(make([]float64, cfg.NumInputs()))
		assert.Equal(t, handRolled, got, name)
		assert.InDelta(t, want, got, 1e-12, name)
	}
}

func TestRetrieveMidpointScene(t *testing.T) {
	for name, want := range midpointOutputs {
		cfg := mustVariant(t, name)
		r, angles := midpointScene(cfg)

		out, err := Retrieve(r, angles, cfg)
		require.NoError(t, err, name)
		require.True(t, out.Valid[0], name)
		assert.InDelta(t, want, out.Data[0], 1e-9, name)
		assert.Equal(t, string(cfg.Parameter()), out.Parameter)
		assert.Equal(t, name, out.Variant)
	}
}

func TestRetrieveMasksOutOfDomainPixel(t *testing.T) {
	cfg := mustVariant(t, "fapar8")
	r, angles := midpointScene(cfg)
	r.Bands["B3"][0] = 3000

	out, err := Retrieve(r, angles, cfg)
	require.NoError(t, err)
	assert.False(t, out.Valid[0])
	assert.Equal(t, DefaultNoData, out.Data[0])
	assert.Equal(t, 0, out.CountValid())

	// the threshold itself is still valid
	r.Bands["B3"][0] = 2600
	out, err = Retrieve(r, angles, cfg)
	require.NoError(t, err)
	assert.True(t, out.Valid[0])
}

func TestRetrieveReferencePixels(t *testing.T) {
	tests := []struct {
		variant string
		dn      []float64
		angles  SceneAngles
		want    float64
	}{
		{"fapar3", []float64{500, 400, 3500}, SceneAngles{5, 35, 45}, 0.7659037038966965},
		{"lai3", []float64{500, 400, 3500}, SceneAngles{5, 35, 45}, 2.904757681587435},
		{"fapar8", []float64{700, 500, 1000, 2200, 2800, 3100, 2000, 1100}, SceneAngles{6.5, 40, -20}, 0.5828772949214381},
		{"lai8", []float64{700, 500, 1000, 2200, 2800, 3100, 2000, 1100}, SceneAngles{6.5, 40, -20}, 1.5400212250000511},
	}
	for _, tc := range tests {
		cfg := mustVariant(t, tc.variant)
		r := NewRaster(1, 1)
		for b, band := range cfg.Bands() {
			r.AddBand(band, []float64{tc.dn[b]})
		}
		out, err := Retrieve(r, tc.angles, cfg)
		require.NoError(t, err, tc.variant)
		require.True(t, out.Valid[0], tc.variant)
		assert.InDelta(t, tc.want, out.Data[0], 1e-9, tc.variant)

		refl := make([]float64, len(tc.dn))
		for i, v := range tc.dn {
			refl[i] = v * DefaultScaleFactor
		}
		pixel := NewRetrievalPipeline(cfg).RetrievePixel(refl, DeriveAngleFeatures(tc.angles))
		assert.Equal(t, out.Data[0], pixel, tc.variant)
	}
}

func TestRetrieveMaskIndependence(t *testing.T) {
	cfg := mustVariant(t, "lai3")
	r := NewRaster(1, 3)
	r.AddBand("B3", []float64{500, 5000, 500})
	r.AddBand("B4", []float64{400, 400, 400})
	r.AddBand("B8", []float64{3500, 3500, 3500})
	angles := SceneAngles{5, 35, 45}

	out, err := Retrieve(r, angles, cfg)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, out.Valid)
	assert.Equal(t, out.Data[0], out.Data[2])
	assert.Equal(t, DefaultNoData, out.Data[1])

	single := NewRaster(1, 1)
	single.AddBand("B3", []float64{500})
	single.AddBand("B4", []float64{400})
	single.AddBand("B8", []float64{3500})
	alone, err := Retrieve(single, angles, cfg)
	require.NoError(t, err)
	assert.Equal(t, alone.Data[0], out.Data[0])
}

func TestRetrieveDeterministicAndPure(t *testing.T) {
	cfg := mustVariant(t, "fapar8")
	r := NewRaster(2, 2)
	for b, band := range cfg.Bands() {
		data := make([]float64, 4)
		for i := range data {
			data[i] = float64(300 + 200*b + 50*i)
		}
		r.AddBand(band, data)
	}
	r.AddBand("B2", []float64{9999, 9999, 9999, 9999})
	before := Descale(r, 1)
	angles := SceneAngles{ViewZenith: 8, SunZenith: 45, RelativeAzimuth: 100}

	first, err := Retrieve(r, angles, cfg)
	require.NoError(t, err)
	second, err := Retrieve(r, angles, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before.Bands, r.Bands)
	assert.Equal(t, 4, first.CountValid())
}

func TestRetrieveNonFiniteInput(t *testing.T) {
	cfg := mustVariant(t, "lai3")
	r := NewRaster(1, 2)
	r.AddBand("B3", []float64{500, 500})
	r.AddBand("B4", []float64{400, 400})
	r.AddBand("B8", []float64{math.NaN(), 3500})

	p := NewRetrievalPipeline(cfg)
	p.NoData = -1
	out, err := p.Retrieve(r, SceneAngles{5, 35, 45})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, out.Valid)
	assert.Equal(t, -1.0, out.Data[0])
	assert.False(t, math.IsNaN(out.Data[1]))
}

func TestRetrieveErrors(t *testing.T) {
	cfg := mustVariant(t, "fapar3")

	r := NewRaster(1, 1)
	r.AddBand("B3", []float64{500})
	r.AddBand("B4", []float64{400})
	_, err := Retrieve(r, SceneAngles{}, cfg)
	require.Error(t, err)
	assert.True(t, IsInputShapeError(err))

	r.AddBand("B8", []float64{3500, 3500})
	_, err = Retrieve(r, SceneAngles{}, cfg)
	require.Error(t, err)
	assert.True(t, IsInputShapeError(err))

	_, err = (&RetrievalPipeline{}).Retrieve(r, SceneAngles{})
	assert.True(t, IsConfigurationError(err))
}

func TestRetrieveEmptyRaster(t *testing.T) {
	cfg := mustVariant(t, "lai8")
	r := NewRaster(0, 0)
	for _, band := range cfg.Bands() {
		r.AddBand(band, []float64{})
	}
	out, err := Retrieve(r, SceneAngles{}, cfg)
	require.NoError(t, err)
	assert.Empty(t, out.Data)
}
