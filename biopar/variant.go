package biopar

import (
	"math"
	"sort"
	"strings"
)

type Parameter string

const (
	FAPAR Parameter = "FAPAR"
	LAI   Parameter = "LAI"
)

// VariantDef is the plain data a VariantConfig is built from. InputRanges
// holds one range per band, in band order, followed by the view zenith,
// sun zenith and relative azimuth ranges.
type VariantDef struct {
	Name        string
	Parameter   Parameter
	Bands       []string
	InputRanges []NormalizationRange
	Hidden      []NeuronWeights
	Output      NeuronWeights
	OutputRange NormalizationRange
	Thresholds  map[string]float64
}

// VariantConfig is an immutable, validated network parameterization. It is
// safe for concurrent use.
type VariantConfig struct {
	name        string
	parameter   Parameter
	bands       []string
	inputRanges []NormalizationRange
	hidden      HiddenLayer
	output      OutputLayer
	outputRange NormalizationRange
	masker      *ValidityMasker
	thresholds  map[string]float64
}

// NewVariantConfig validates def and returns a config holding its own copy
// of every table.
func NewVariantConfig(def VariantDef) (*VariantConfig, error) {
	if err := validateDef(def); err != nil {
		return nil, err
	}

	cfg := &VariantConfig{
		name:        def.Name,
		parameter:   def.Parameter,
		bands:       append([]string(nil), def.Bands...),
		inputRanges: append([]NormalizationRange(nil), def.InputRanges...),
		output:      OutputLayer(def.Output.clone()),
		outputRange: def.OutputRange,
		thresholds:  make(map[string]float64, len(def.Thresholds)),
	}
	for _, w := range def.Hidden {
		cfg.hidden = append(cfg.hidden, w.clone())
	}
	for band, ceiling := range def.Thresholds {
		cfg.thresholds[band] = ceiling
	}
	cfg.masker = NewValidityMasker(cfg.bands, cfg.thresholds)
	return cfg, nil
}

func validateDef(def VariantDef) error {
	if len(strings.TrimSpace(def.Name)) == 0 {
		return configErrorf("", "variant name is empty")
	}
	if def.Parameter != FAPAR && def.Parameter != LAI {
		return configErrorf(def.Name, "unsupported parameter %q", def.Parameter)
	}
	if len(def.Bands) == 0 {
		return configErrorf(def.Name, "band list is empty")
	}

	seen := make(map[string]bool, len(def.Bands))
	for _, band := range def.Bands {
		if seen[band] {
			return configErrorf(def.Name, "band %s declared twice", band)
		}
		seen[band] = true
	}

	nInputs := len(def.Bands) + NumAngleFeatures
	if len(def.InputRanges) != nInputs {
		return configErrorf(def.Name, "%d input ranges for %d bands, expected %d", len(def.InputRanges), len(def.Bands), nInputs)
	}
	for i, r := range def.InputRanges {
		if err := r.Validate(); err != nil {
			return configErrorf(def.Name, "input %d: %v", i, err.(*ConfigurationError).Reason)
		}
	}

	if len(def.Hidden) != NumHiddenNeurons {
		return configErrorf(def.Name, "%d hidden neurons, expected %d", len(def.Hidden), NumHiddenNeurons)
	}
	for j, w := range def.Hidden {
		if len(w.Weights) != nInputs {
			return configErrorf(def.Name, "hidden neuron %d has %d weights, expected %d", j+1, len(w.Weights), nInputs)
		}
	}
	if len(def.Output.Weights) != NumHiddenNeurons {
		return configErrorf(def.Name, "output layer has %d weights, expected %d", len(def.Output.Weights), NumHiddenNeurons)
	}
	if err := def.OutputRange.Validate(); err != nil {
		return configErrorf(def.Name, "output range: %v", err.(*ConfigurationError).Reason)
	}

	for band, ceiling := range def.Thresholds {
		if !seen[band] {
			return configErrorf(def.Name, "threshold for undeclared band %s", band)
		}
		if math.IsNaN(ceiling) || math.IsInf(ceiling, 0) {
			return configErrorf(def.Name, "threshold for band %s is not finite", band)
		}
	}
	return nil
}

func (c *VariantConfig) Name() string         { return c.name }
func (c *VariantConfig) Parameter() Parameter { return c.parameter }
func (c *VariantConfig) NumInputs() int       { return len(c.bands) + NumAngleFeatures }

func (c *VariantConfig) Bands() []string {
	return append([]string(nil), c.bands...)
}

func (c *VariantConfig) InputRanges() []NormalizationRange {
	return append([]NormalizationRange(nil), c.inputRanges...)
}

func (c *VariantConfig) Hidden() []NeuronWeights {
	out := make([]NeuronWeights, len(c.hidden))
	for i, w := range c.hidden {
		out[i] = w.clone()
	}
	return out
}

func (c *VariantConfig) Output() NeuronWeights {
	return NeuronWeights(c.output).clone()
}

func (c *VariantConfig) OutputRange() NormalizationRange {
	return c.outputRange
}

func (c *VariantConfig) Thresholds() map[string]float64 {
	out := make(map[string]float64, len(c.thresholds))
	for band, ceiling := range c.thresholds {
		out[band] = ceiling
	}
	return out
}

var registry = map[string]*VariantConfig{}

func register(def VariantDef) {
	cfg, err := NewVariantConfig(def)
	if err != nil {
		panic(err)
	}
	registry[variantKey(def.Name)] = cfg
}

// variantKey folds the accepted spellings (fapar8, FAPAR-8, fapar_8band) to
// one lookup key.
func variantKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	return strings.TrimSuffix(key, "band")
}

// Variant returns the registered variant with the given name.
func Variant(name string) (*VariantConfig, error) {
	cfg, found := registry[variantKey(name)]
	if !found {
		return nil, configErrorf(name, "unknown variant, available: %s", strings.Join(VariantNames(), ", "))
	}
	return cfg, nil
}

func VariantNames() []string {
	names := make([]string, 0, len(registry))
	for _, cfg := range registry {
		names = append(names, cfg.name)
	}
	sort.Strings(names)
	return names
}

func Variants() []*VariantConfig {
	var out []*VariantConfig
	for _, name := range VariantNames() {
		out = append(out, registry[variantKey(name)])
	}
	return out
}
