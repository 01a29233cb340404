package biopar

import (
	"sort"
)

// Raster maps band identifiers (B3, B8A, ...) to pixel arrays in row-major
// order. All bands share Height*Width cells.
type Raster struct {
	Height int                  `json:"height"`
	Width  int                  `json:"width"`
	Bands  map[string][]float64 `json:"bands"`
}

func NewRaster(height, width int) *Raster {
	return &Raster{Height: height, Width: width, Bands: make(map[string][]float64)}
}

func (r *Raster) Size() int {
	return r.Height * r.Width
}

func (r *Raster) AddBand(name string, data []float64) {
	if r.Bands == nil {
		r.Bands = make(map[string][]float64)
	}
	r.Bands[name] = data
}

func (r *Raster) BandNames() []string {
	names := make([]string, 0, len(r.Bands))
	for name := range r.Bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every band in required is present and that every
// band in the raster has Height*Width cells.
func (r *Raster) Validate(required []string) error {
	if r == nil {
		return shapeErrorf("", "nil raster")
	}
	if r.Height < 0 || r.Width < 0 {
		return shapeErrorf("", "invalid raster shape %dx%d", r.Height, r.Width)
	}
	for _, band := range required {
		if _, found := r.Bands[band]; !found {
			return shapeErrorf(band, "missing from raster")
		}
	}
	for _, band := range r.BandNames() {
		if len(r.Bands[band]) != r.Size() {
			return shapeErrorf(band, "has %d cells, raster shape %dx%d needs %d", len(r.Bands[band]), r.Height, r.Width, r.Size())
		}
	}
	return nil
}

// Descale returns a new raster holding every band multiplied by factor.
func Descale(r *Raster, factor float64) *Raster {
	out := NewRaster(r.Height, r.Width)
	for name, data := range r.Bands {
		out.Bands[name] = descaleBand(data, factor)
	}
	return out
}

func descaleBand(data []float64, factor float64) []float64 {
	scaled := make([]float64, len(data))
	for i, v := range data {
		scaled[i] = v * factor
	}
	return scaled
}

// ParameterRaster is the retrieval output. Cells with Valid[i] == false hold
// NoData.
type ParameterRaster struct {
	Parameter string    `json:"parameter"`
	Variant   string    `json:"variant"`
	Height    int       `json:"height"`
	Width     int       `json:"width"`
	Data      []float64 `json:"data"`
	Valid     []bool    `json:"valid"`
	NoData    float64   `json:"nodata"`
}

func NewParameterRaster(parameter, variant string, height, width int, noData float64) *ParameterRaster {
	return &ParameterRaster{
		Parameter: parameter,
		Variant:   variant,
		Height:    height,
		Width:     width,
		Data:      make([]float64, height*width),
		Valid:     make([]bool, height*width),
		NoData:    noData,
	}
}

func (p *ParameterRaster) CountValid() int {
	n := 0
	for _, ok := range p.Valid {
		if ok {
			n++
		}
	}
	return n
}
