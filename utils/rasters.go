package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

type Raster interface {
	GetNoData() float64
}

type ByteRaster struct {
	Data          []uint8
	Height, Width int
	NoData        float64
}

func (r *ByteRaster) GetNoData() float64 {
	return r.NoData
}

type Int16Raster struct {
	Data          []int16
	Height, Width int
	NoData        float64
}

func (r *Int16Raster) GetNoData() float64 {
	return r.NoData
}

type UInt16Raster struct {
	Data          []uint16
	Height, Width int
	NoData        float64
}

func (r *UInt16Raster) GetNoData() float64 {
	return r.NoData
}

type Float32Raster struct {
	Data          []float32
	Height, Width int
	NoData        float64
}

func (r *Float32Raster) GetNoData() float64 {
	return r.NoData
}

type Float64Raster struct {
	Data          []float64
	Height, Width int
	NoData        float64
}

func (r *Float64Raster) GetNoData() float64 {
	return r.NoData
}

var rasterTypeSize = map[string]int{
	"Byte":    1,
	"Int16":   2,
	"UInt16":  2,
	"Float32": 4,
	"Float64": 8,
}

// DecodeRaster decodes a little-endian raw payload of the given GDAL data
// type name.
func DecodeRaster(rType string, data []byte, height, width int, noData float64) (Raster, error) {
	size, found := rasterTypeSize[rType]
	if !found {
		return nil, fmt.Errorf("Raster type %s not implemented", rType)
	}
	if height < 0 || width < 0 {
		return nil, fmt.Errorf("invalid raster shape %dx%d", height, width)
	}
	if len(data) != height*width*size {
		return nil, fmt.Errorf("%s payload has %d bytes, expected %d for %dx%d", rType, len(data), height*width*size, height, width)
	}

	var out Raster
	var dst interface{}
	switch rType {
	case "Byte":
		r := &ByteRaster{Data: make([]uint8, height*width), Height: height, Width: width, NoData: noData}
		copy(r.Data, data)
		return r, nil
	case "Int16":
		r := &Int16Raster{Data: make([]int16, height*width), Height: height, Width: width, NoData: noData}
		out, dst = r, r.Data
	case "UInt16":
		r := &UInt16Raster{Data: make([]uint16, height*width), Height: height, Width: width, NoData: noData}
		out, dst = r, r.Data
	case "Float32":
		r := &Float32Raster{Data: make([]float32, height*width), Height: height, Width: width, NoData: noData}
		out, dst = r, r.Data
	case "Float64":
		r := &Float64Raster{Data: make([]float64, height*width), Height: height, Width: width, NoData: noData}
		out, dst = r, r.Data
	}

	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, dst); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %v", rType, err)
	}
	return out, nil
}

// EncodeRaster is the inverse of DecodeRaster.
func EncodeRaster(r Raster) (string, []byte, error) {
	buf := new(bytes.Buffer)
	var rType string
	var src interface{}
	switch t := r.(type) {
	case *ByteRaster:
		return "Byte", append([]byte(nil), t.Data...), nil
	case *Int16Raster:
		rType, src = "Int16", t.Data
	case *UInt16Raster:
		rType, src = "UInt16", t.Data
	case *Float32Raster:
		rType, src = "Float32", t.Data
	case *Float64Raster:
		rType, src = "Float64", t.Data
	default:
		return "", nil, fmt.Errorf("Raster type not implemented")
	}
	if err := binary.Write(buf, binary.LittleEndian, src); err != nil {
		return "", nil, err
	}
	return rType, buf.Bytes(), nil
}

// Float64Values widens a typed raster. Cells equal to the raster's NoData
// become NaN, which the validity mask rejects.
func Float64Values(r Raster) ([]float64, error) {
	noData := r.GetNoData()
	var out []float64
	switch t := r.(type) {
	case *ByteRaster:
		out = make([]float64, len(t.Data))
		for i, value := range t.Data {
			out[i] = float64(value)
		}
	case *Int16Raster:
		out = make([]float64, len(t.Data))
		for i, value := range t.Data {
			out[i] = float64(value)
		}
	case *UInt16Raster:
		out = make([]float64, len(t.Data))
		for i, value := range t.Data {
			out[i] = float64(value)
		}
	case *Float32Raster:
		out = make([]float64, len(t.Data))
		for i, value := range t.Data {
			out[i] = float64(value)
		}
		// compare in the storage precision
		noData = float64(float32(noData))
	case *Float64Raster:
		out = append([]float64(nil), t.Data...)
	default:
		return nil, fmt.Errorf("Raster type not implemented")
	}

	if math.IsNaN(noData) {
		return out, nil
	}
	for i, value := range out {
		if value == noData {
			out[i] = math.NaN()
		}
	}
	return out, nil
}
