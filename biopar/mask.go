package biopar

import "math"

// ValidityMasker flags pixels whose descaled reflectance is outside the
// plausible input domain. It is evaluated independently of the network.
//
// A pixel is valid when every band with a ceiling satisfies
// reflectance <= ceiling, and no band in the list holds NaN or Inf.
type ValidityMasker struct {
	bands      []string
	thresholds map[string]float64
}

func NewValidityMasker(bands []string, thresholds map[string]float64) *ValidityMasker {
	m := &ValidityMasker{
		bands:      append([]string(nil), bands...),
		thresholds: make(map[string]float64, len(thresholds)),
	}
	for band, ceiling := range thresholds {
		m.thresholds[band] = ceiling
	}
	return m
}

// Valid tests a single band value.
func (m *ValidityMasker) Valid(band string, reflectance float64) bool {
	if math.IsNaN(reflectance) || math.IsInf(reflectance, 0) {
		return false
	}
	if ceiling, found := m.thresholds[band]; found {
		return reflectance <= ceiling
	}
	return true
}

// ValidPixel tests one pixel given reflectance in the masker's band order.
func (m *ValidityMasker) ValidPixel(reflectance []float64) bool {
	for i, band := range m.bands {
		if !m.Valid(band, reflectance[i]) {
			return false
		}
	}
	return true
}

// Mask evaluates the whole descaled raster. true means valid.
func (m *ValidityMasker) Mask(descaled *Raster) ([]bool, error) {
	if err := descaled.Validate(m.bands); err != nil {
		return nil, err
	}

	mask := make([]bool, descaled.Size())
	for i := range mask {
		mask[i] = true
	}
	for _, band := range m.bands {
		for i, v := range descaled.Bands[band] {
			if mask[i] && !m.Valid(band, v) {
				mask[i] = false
			}
		}
	}
	return mask, nil
}
