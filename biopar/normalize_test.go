package biopar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoundTrip(t *testing.T) {
	ranges := []NormalizationRange{
		{Min: 0, Max: 0.253061520471542},
		{Min: 0.026690138082061, Max: 0.782011770669178},
		{Min: -1, Max: 1},
		{Min: 0.000319182538301, Max: 14.4675094548151},
	}
	for _, r := range ranges {
		for _, x := range []float64{r.Min, r.Max, r.Midpoint(), -3.5, 0, 0.1234, 42} {
			assert.InDelta(t, x, r.Denormalize(r.Normalize(x)), 1e-12, "range %v x %v", r, x)
		}
	}
}

func TestNormalizeEndpoints(t *testing.T) {
	r := NormalizationRange{Min: 0.342022871159208, Max: 0.936206429175402}
	assert.InDelta(t, -1, r.Normalize(r.Min), 1e-15)
	assert.InDelta(t, 1, r.Normalize(r.Max), 1e-15)
	assert.InDelta(t, 0, r.Normalize(r.Midpoint()), 1e-15)
	assert.InDelta(t, r.Min, r.Denormalize(-1), 1e-15)
	assert.InDelta(t, r.Max, r.Denormalize(1), 1e-15)
}

func TestNormalizeDoesNotClamp(t *testing.T) {
	r := NormalizationRange{Min: 0, Max: 0.5}
	assert.InDelta(t, 3, r.Normalize(1), 1e-15)
	assert.InDelta(t, -5, r.Normalize(-0.5), 1e-15)
	assert.InDelta(t, 1.5, r.Denormalize(5), 1e-15)
}

func TestUnitRangeIsExact(t *testing.T) {
	r := NormalizationRange{Min: -1, Max: 1}
	for _, x := range []float64{0.1, -0.3, 0.7071067811865476, 1e-17, -1, 1, 1.5} {
		assert.Equal(t, x, r.Normalize(x))
		assert.Equal(t, x, r.Denormalize(x))
	}
}

func TestNormalizationRangeValidate(t *testing.T) {
	require.NoError(t, NormalizationRange{Min: -1, Max: 1}.Validate())

	for _, r := range []NormalizationRange{
		{Min: 1, Max: 1},
		{Min: 2, Max: 1},
		{Min: math.NaN(), Max: 1},
		{Min: 0, Max: math.Inf(1)},
	} {
		err := r.Validate()
		assert.Error(t, err, "range %v", r)
		assert.True(t, IsConfigurationError(err))
	}
}

func TestDeriveAngleFeatures(t *testing.T) {
	f := DeriveAngleFeatures(SceneAngles{ViewZenith: 0, SunZenith: 60, RelativeAzimuth: 180})
	assert.InDelta(t, 1, f.ViewZenith, 1e-15)
	assert.InDelta(t, 0.5, f.SunZenith, 1e-15)
	assert.InDelta(t, -1, f.RelativeAzimuth, 1e-15)

	a := SceneAnglesFromAzimuths(4.2, 33.1, 150.5, 290.5)
	assert.Equal(t, 4.2, a.ViewZenith)
	assert.Equal(t, 33.1, a.SunZenith)
	assert.InDelta(t, -140, a.RelativeAzimuth, 1e-12)

	// cos is even, so the sign of the azimuth difference does not matter
	f1 := DeriveAngleFeatures(SceneAngles{RelativeAzimuth: 140})
	f2 := DeriveAngleFeatures(SceneAngles{RelativeAzimuth: -140})
	assert.Equal(t, f1.RelativeAzimuth, f2.RelativeAzimuth)
}
