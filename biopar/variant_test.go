package biopar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredVariants(t *testing.T) {
	assert.Equal(t, []string{"fapar3", "fapar8", "lai3", "lai8"}, VariantNames())

	for _, cfg := range Variants() {
		nb := len(cfg.Bands())
		assert.Equal(t, nb+NumAngleFeatures, cfg.NumInputs(), cfg.Name())
		assert.Len(t, cfg.InputRanges(), cfg.NumInputs(), cfg.Name())
		assert.Len(t, cfg.Hidden(), NumHiddenNeurons, cfg.Name())
		for _, w := range cfg.Hidden() {
			assert.Len(t, w.Weights, cfg.NumInputs(), cfg.Name())
		}
		assert.Len(t, cfg.Output().Weights, NumHiddenNeurons, cfg.Name())
	}

	fapar8, err := Variant("fapar8")
	require.NoError(t, err)
	assert.Equal(t, FAPAR, fapar8.Parameter())
	assert.Equal(t, []string{"B3", "B4", "B5", "B6", "B7", "B8A", "B11", "B12"}, fapar8.Bands())
	assert.Len(t, fapar8.Thresholds(), 8)

	lai3, err := Variant("lai3")
	require.NoError(t, err)
	assert.Equal(t, LAI, lai3.Parameter())
	assert.Equal(t, []string{"B3", "B4", "B8"}, lai3.Bands())
	assert.Equal(t, map[string]float64{"B3": 0.26, "B4": 0.30}, lai3.Thresholds())
}

func TestVariantAliases(t *testing.T) {
	for _, name := range []string{"fapar8", "FAPAR8", "fapar-8", "FAPAR_8band", " fapar 8 "} {
		cfg, err := Variant(name)
		require.NoError(t, err, name)
		assert.Equal(t, "fapar8", cfg.Name())
	}

	_, err := Variant("ndvi")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "lai8")
}

func TestVariantAccessorsReturnCopies(t *testing.T) {
	cfg, err := Variant("lai8")
	require.NoError(t, err)

	bands := cfg.Bands()
	bands[0] = "B1"
	hidden := cfg.Hidden()
	original := hidden[0].Weights[0]
	hidden[0].Weights[0] = 12345
	thresholds := cfg.Thresholds()
	thresholds["B3"] = 99

	assert.Equal(t, "B3", cfg.Bands()[0])
	assert.Equal(t, original, cfg.Hidden()[0].Weights[0])
	assert.Equal(t, 0.26, cfg.Thresholds()["B3"])
}

func testDef() VariantDef {
	hidden := make([]NeuronWeights, NumHiddenNeurons)
	for j := range hidden {
		hidden[j] = NeuronWeights{Bias: float64(j), Weights: []float64{0.1, 0.2, 0.3, 0.4}}
	}
	return VariantDef{
		Name:      "test",
		Parameter: FAPAR,
		Bands:     []string{"B4"},
		InputRanges: []NormalizationRange{
			{Min: 0, Max: 0.3}, {Min: 0.9, Max: 1}, {Min: 0.3, Max: 0.9}, {Min: -1, Max: 1},
		},
		Hidden:      hidden,
		Output:      NeuronWeights{Bias: 0, Weights: []float64{1, 1, 1, 1, 1}},
		OutputRange: NormalizationRange{Min: 0, Max: 1},
		Thresholds:  map[string]float64{"B4": 0.3},
	}
}

func TestNewVariantConfigRejectsBadDefs(t *testing.T) {
	_, err := NewVariantConfig(testDef())
	require.NoError(t, err)

	cases := map[string]func(d *VariantDef){
		"empty name":        func(d *VariantDef) { d.Name = "" },
		"bad parameter":     func(d *VariantDef) { d.Parameter = "NDVI" },
		"no bands":          func(d *VariantDef) { d.Bands = nil },
		"duplicate band":    func(d *VariantDef) { d.Bands = []string{"B4", "B4"} },
		"short ranges":      func(d *VariantDef) { d.InputRanges = d.InputRanges[:3] },
		"inverted range":    func(d *VariantDef) { d.InputRanges[0] = NormalizationRange{Min: 1, Max: 0} },
		"four neurons":      func(d *VariantDef) { d.Hidden = d.Hidden[:4] },
		"short weights":     func(d *VariantDef) { d.Hidden[2].Weights = []float64{1, 2, 3} },
		"short output":      func(d *VariantDef) { d.Output.Weights = []float64{1, 2} },
		"flat output range": func(d *VariantDef) { d.OutputRange = NormalizationRange{Min: 1, Max: 1} },
		"foreign threshold": func(d *VariantDef) { d.Thresholds = map[string]float64{"B8": 0.5} },
	}
	for name, mutate := range cases {
		def := testDef()
		mutate(&def)
		_, err := NewVariantConfig(def)
		if assert.Error(t, err, name) {
			assert.True(t, IsConfigurationError(err), name)
		}
	}
}

func TestNewVariantConfigCopiesDef(t *testing.T) {
	def := testDef()
	cfg, err := NewVariantConfig(def)
	require.NoError(t, err)

	def.Hidden[0].Weights[0] = 100
	def.InputRanges[0].Max = 5
	def.Bands[0] = "B5"
	assert.Equal(t, 0.1, cfg.Hidden()[0].Weights[0])
	assert.Equal(t, 0.3, cfg.InputRanges()[0].Max)
	assert.Equal(t, []string{"B4"}, cfg.Bands())
}
