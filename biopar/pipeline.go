// Package biopar retrieves FAPAR and LAI from Sentinel-2 reflectance with the
// fixed one-hidden-layer networks of the S2ToolBox biophysical processor.
package biopar

const (
	// DefaultScaleFactor converts L2A digital numbers to reflectance.
	DefaultScaleFactor = 0.0001
	DefaultNoData      = -9999.0
)

// RetrievalPipeline runs one variant over a scene. It holds no per-call
// state and may be shared between goroutines.
type RetrievalPipeline struct {
	Variant     *VariantConfig
	ScaleFactor float64
	NoData      float64
}

func NewRetrievalPipeline(cfg *VariantConfig) *RetrievalPipeline {
	return &RetrievalPipeline{
		Variant:     cfg,
		ScaleFactor: DefaultScaleFactor,
		NoData:      DefaultNoData,
	}
}

// Retrieve is NewRetrievalPipeline(cfg).Retrieve(r, angles).
func Retrieve(r *Raster, angles SceneAngles, cfg *VariantConfig) (*ParameterRaster, error) {
	return NewRetrievalPipeline(cfg).Retrieve(r, angles)
}

// Retrieve evaluates the network for every pixel of r. r holds scaled
// digital numbers and is not modified. Bands not used by the variant are
// ignored.
func (p *RetrievalPipeline) Retrieve(r *Raster, angles SceneAngles) (*ParameterRaster, error) {
	cfg := p.Variant
	if cfg == nil {
		return nil, configErrorf("", "no variant selected")
	}
	if err := r.Validate(cfg.bands); err != nil {
		return nil, err
	}

	// 1. descale
	descaled := NewRaster(r.Height, r.Width)
	for _, band := range cfg.bands {
		descaled.Bands[band] = descaleBand(r.Bands[band], p.ScaleFactor)
	}

	// 2. validity mask on reflectance
	mask, err := cfg.masker.Mask(descaled)
	if err != nil {
		return nil, err
	}

	// 3. scene-wide angle inputs, normalized once
	angleInputs := cfg.normalizedAngles(DeriveAngleFeatures(angles))

	out := NewParameterRaster(string(cfg.parameter), cfg.name, r.Height, r.Width, p.NoData)
	nb := len(cfg.bands)
	bandData := make([][]float64, nb)
	for b, band := range cfg.bands {
		bandData[b] = descaled.Bands[band]
	}

	inputs := make([]float64, cfg.NumInputs())
	hidden := make([]float64, NumHiddenNeurons)
	copy(inputs[nb:], angleInputs[:])
	for i := range out.Data {
		if !mask[i] {
			// 7. masked pixels carry no data
			out.Data[i] = p.NoData
			continue
		}
		for b := range bandData {
			inputs[b] = cfg.inputRanges[b].Normalize(bandData[b][i])
		}
		// 4-6. hidden layer, output layer, denormalization
		out.Data[i] = cfg.evaluate(inputs, hidden)
		out.Valid[i] = true
	}
	return out, nil
}

// RetrievePixel runs steps 3 to 6 for one pixel of descaled reflectance
// given in the variant's band order. The validity mask is not applied.
func (p *RetrievalPipeline) RetrievePixel(reflectance []float64, f AngleFeatures) float64 {
	cfg := p.Variant
	nb := len(cfg.bands)
	inputs := make([]float64, cfg.NumInputs())
	for b := 0; b < nb; b++ {
		inputs[b] = cfg.inputRanges[b].Normalize(reflectance[b])
	}
	angleInputs := cfg.normalizedAngles(f)
	copy(inputs[nb:], angleInputs[:])
	return cfg.evaluate(inputs, make([]float64, NumHiddenNeurons))
}

// EvaluateNormalized runs the hidden layer, output layer and
// denormalization over an already normalized input vector.
func (c *VariantConfig) EvaluateNormalized(inputs []float64) float64 {
	return c.evaluate(inputs, make([]float64, NumHiddenNeurons))
}

func (c *VariantConfig) evaluate(inputs, hidden []float64) float64 {
	c.hidden.Evaluate(inputs, hidden)
	return c.outputRange.Denormalize(c.output.Evaluate(hidden))
}

func (c *VariantConfig) normalizedAngles(f AngleFeatures) [NumAngleFeatures]float64 {
	nb := len(c.bands)
	raw := f.values()
	var out [NumAngleFeatures]float64
	for k := range raw {
		out[k] = c.inputRanges[nb+k].Normalize(raw[k])
	}
	return out
}
