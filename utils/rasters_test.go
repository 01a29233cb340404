package utils

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDecodeEncodeRaster(t *testing.T) {
	rasters := []Raster{
		&ByteRaster{Data: []uint8{0, 7, 255, 3}, Height: 2, Width: 2, NoData: 255},
		&Int16Raster{Data: []int16{-9999, 400, 3500, 1}, Height: 2, Width: 2, NoData: -9999},
		&UInt16Raster{Data: []uint16{0, 400, 65535, 1}, Height: 1, Width: 4},
		&Float32Raster{Data: []float32{0.25, -1, 3.5, 1e-3}, Height: 4, Width: 1},
		&Float64Raster{Data: []float64{0.1, 0.2, math.NaN(), 4}, Height: 2, Width: 2},
	}

	for _, r := range rasters {
		rType, data, err := EncodeRaster(r)
		if err != nil {
			t.Errorf("encode %T failed: %v", r, err)
			continue
		}
		h, w := rasterShape(r)
		out, err := DecodeRaster(rType, data, h, w, r.GetNoData())
		if err != nil {
			t.Errorf("decode %s failed: %v", rType, err)
			continue
		}
		if diff := cmp.Diff(r, out, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("%s round trip mismatch (-want +got):\n%s", rType, diff)
		}
	}
}

func rasterShape(r Raster) (int, int) {
	switch t := r.(type) {
	case *ByteRaster:
		return t.Height, t.Width
	case *Int16Raster:
		return t.Height, t.Width
	case *UInt16Raster:
		return t.Height, t.Width
	case *Float32Raster:
		return t.Height, t.Width
	case *Float64Raster:
		return t.Height, t.Width
	}
	return 0, 0
}

func TestDecodeRasterErrors(t *testing.T) {
	if _, err := DecodeRaster("Int32", make([]byte, 8), 1, 2, 0); err == nil {
		t.Errorf("unsupported type should fail")
	}
	if _, err := DecodeRaster("Int16", make([]byte, 3), 1, 2, 0); err == nil {
		t.Errorf("short payload should fail")
	}
	if _, err := DecodeRaster("Float32", nil, -1, 2, 0); err == nil {
		t.Errorf("negative shape should fail")
	}
}

func TestFloat64ValuesNoData(t *testing.T) {
	values, err := Float64Values(&Int16Raster{Data: []int16{-9999, 400, 3500}, Height: 1, Width: 3, NoData: -9999})
	if err != nil {
		t.Fatal(err)
	}
	expected := []float64{math.NaN(), 400, 3500}
	if diff := cmp.Diff(expected, values, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("Int16 nodata mismatch (-want +got):\n%s", diff)
	}

	// float32 storage of a float64 nodata
	values, err = Float64Values(&Float32Raster{Data: []float32{-3.4e38, 0.5}, Height: 1, Width: 2, NoData: -3.4e38})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(values[0]) || values[1] != 0.5 {
		t.Errorf("Float32 nodata test failed, actual %v", values)
	}

	raw := []float64{1, 2}
	values, _ = Float64Values(&Float64Raster{Data: raw, Height: 1, Width: 2, NoData: 1})
	if raw[0] != 1 || !math.IsNaN(values[0]) {
		t.Errorf("Float64Values must not modify its input, actual %v %v", raw, values)
	}

	values, _ = Float64Values(&UInt16Raster{Data: []uint16{0, 1}, Height: 1, Width: 2, NoData: math.NaN()})
	if values[0] != 0 || values[1] != 1 {
		t.Errorf("NaN nodata must keep every value, actual %v", values)
	}
}
