package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	geo "github.com/nci/geometry"
	"github.com/nci/biopar/biopar"
)

// WPSParams contains the serialised version
// of the parameters contained in a WPS request.
type WPSParams struct {
	Service    *string `json:"service"`
	Request    *string `json:"request"`
	Identifier *string `json:"identifier"`
	Version    *string `json:"version"`
}

// WPSRegexpMap maps WPS request parameters to
// regular expressions for doing validation
// when parsing.
var WPSRegexpMap = map[string]string{"service": `^WPS$`,
	"request":    `^GetCapabilities$|^DescribeProcess$|^Execute$`,
	"identifier": `^[A-Za-z0-9_\-\.]+$`,
	"version":    `^1\.0\.0$`}

func CompileWPSRegexMap() map[string]*regexp.Regexp {
	REMap := make(map[string]*regexp.Regexp)
	for key, re := range WPSRegexpMap {
		REMap[key] = regexp.MustCompile(re)
	}

	return REMap
}

// WPSParamsChecker checks and marshals the content
// of the parameters of a WPS request into a
// WPSParams struct.
func WPSParamsChecker(params map[string][]string, compREMap map[string]*regexp.Regexp) (WPSParams, error) {

	jsonFields := []string{}

	if service, serviceOK := params["service"]; serviceOK {
		if compREMap["service"].MatchString(service[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"service":"%s"`, service[0]))
		}
	} else {
		jsonFields = append(jsonFields, fmt.Sprintf(`"service":""`))
	}

	if request, requestOK := params["request"]; requestOK {
		if compREMap["request"].MatchString(request[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"request":"%s"`, request[0]))
		} else {
			return WPSParams{}, fmt.Errorf("%s is not a valid WPS request", request[0])
		}
	} else {
		return WPSParams{}, fmt.Errorf("WPS 'request' not found")
	}

	if id, idOK := params["identifier"]; idOK {
		if compREMap["identifier"].MatchString(id[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"identifier":"%s"`, id[0]))
		} else {
			return WPSParams{}, fmt.Errorf("%s is not a valid process identifier", id[0])
		}
	}

	if version, versionOK := params["version"]; versionOK {
		if compREMap["version"].MatchString(version[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"version":"%s"`, version[0]))
		} else {
			return WPSParams{}, fmt.Errorf("WPS version %s not supported", version[0])
		}
	}

	jsonParams := fmt.Sprintf("{%s}", strings.Join(jsonFields, ","))
	var wpsParamms WPSParams
	err := json.Unmarshal([]byte(jsonParams), &wpsParamms)
	return wpsParamms, err
}

// BandPayload is one source namespace of an Execute request. Either Data
// holds a base64 little-endian raw buffer of Type, or Values holds the
// numbers directly.
type BandPayload struct {
	Type   string    `json:"type"`
	NoData *float64  `json:"nodata"`
	Data   string    `json:"data"`
	Values []float64 `json:"values"`
}

// AngleInputs are the scene-wide acquisition angles in degrees.
type AngleInputs struct {
	ViewZenith  float64 `json:"view_zenith"`
	SunZenith   float64 `json:"sun_zenith"`
	SunAzimuth  float64 `json:"sun_azimuth"`
	ViewAzimuth float64 `json:"view_azimuth"`
}

func (a AngleInputs) SceneAngles() biopar.SceneAngles {
	return biopar.SceneAnglesFromAzimuths(a.ViewZenith, a.SunZenith, a.SunAzimuth, a.ViewAzimuth)
}

// ExecuteRequest is the JSON body of a WPS Execute request.
type ExecuteRequest struct {
	Height    int                    `json:"height"`
	Width     int                    `json:"width"`
	Bands     map[string]BandPayload `json:"bands"`
	Angles    *AngleInputs           `json:"angles"`
	SceneID   string                 `json:"scene_id"`
	Footprint json.RawMessage        `json:"footprint"`
	Time      string                 `json:"time"`
}

// ExecuteResponse is the JSON answer of a WPS Execute request. Masked cells
// hold NoData.
type ExecuteResponse struct {
	Product   string      `json:"product"`
	Variant   string      `json:"variant"`
	Parameter string      `json:"parameter"`
	Height    int         `json:"height"`
	Width     int         `json:"width"`
	NoData    float64     `json:"nodata"`
	Values    []float64   `json:"values"`
	Stats     RasterStats `json:"stats"`
}

// ParseExecuteRequest decodes and checks an Execute body. Scenes larger
// than maxPixels are rejected before anything is sized from the shape.
func ParseExecuteRequest(rc io.ReadCloser, maxPixels int) (*ExecuteRequest, error) {
	buf := new(bytes.Buffer)
	buf.ReadFrom(rc)
	rc.Close()

	var req ExecuteRequest
	err := json.Unmarshal(buf.Bytes(), &req)
	if err != nil {
		return nil, fmt.Errorf("Error at JSON parsing Execute request: %v", err)
	}
	if req.Height <= 0 || req.Width <= 0 {
		return nil, fmt.Errorf("Execute request shape %dx%d is not valid", req.Height, req.Width)
	}
	if maxPixels > 0 && req.Height > maxPixels/req.Width {
		return nil, fmt.Errorf("The requested raster of %dx%d pixels is too large, max %d", req.Height, req.Width, maxPixels)
	}
	if len(req.Bands) == 0 {
		return nil, fmt.Errorf("Execute request contains no bands")
	}
	if req.Angles == nil && len(req.SceneID) == 0 && len(req.Footprint) == 0 {
		return nil, fmt.Errorf("Execute request needs angles, a scene_id or a footprint")
	}
	if len(req.Footprint) > 0 {
		if _, err := req.FootprintWKT(); err != nil {
			return nil, err
		}
	}
	if len(req.Time) > 0 {
		if _, err := time.Parse(time.RFC3339, req.Time); err != nil {
			return nil, fmt.Errorf("Invalid time %s: %v", req.Time, err)
		}
	}
	return &req, nil
}

// FootprintWKT converts the GeoJSON footprint feature to WKT for the
// metadata index.
func (req *ExecuteRequest) FootprintWKT() (string, error) {
	var feat geo.Feature
	if err := json.Unmarshal(req.Footprint, &feat); err != nil {
		return "", fmt.Errorf("Problem unmarshalling GeoJSON footprint: %v", err)
	}
	switch feat.Geometry.(type) {
	case *geo.Polygon, *geo.MultiPolygon:
		return feat.Geometry.MarshalWKT(), nil
	default:
		return "", fmt.Errorf("Geometry not supported. Only Features containing Polygon or MultiPolygon are available")
	}
}

// SourceValues decodes every band payload to float64 with NoData as NaN.
func (req *ExecuteRequest) SourceValues() (map[string][]float64, error) {
	size := req.Height * req.Width
	sources := make(map[string][]float64, len(req.Bands))
	for ns, payload := range req.Bands {
		noData := math.NaN()
		if payload.NoData != nil {
			noData = *payload.NoData
		}

		var r Raster
		if len(payload.Data) == 0 {
			if len(payload.Values) != size {
				return nil, &biopar.InputShapeError{Band: ns, Reason: fmt.Sprintf("has %d values, expected %d", len(payload.Values), size)}
			}
			r = &Float64Raster{Data: payload.Values, Height: req.Height, Width: req.Width, NoData: noData}
		} else {
			raw, err := base64.StdEncoding.DecodeString(payload.Data)
			if err != nil {
				return nil, fmt.Errorf("band %s: invalid base64 payload: %v", ns, err)
			}
			r, err = DecodeRaster(payload.Type, raw, req.Height, req.Width, noData)
			if err != nil {
				return nil, &biopar.InputShapeError{Band: ns, Reason: err.Error()}
			}
		}

		values, err := Float64Values(r)
		if err != nil {
			return nil, err
		}
		sources[ns] = values
	}
	return sources, nil
}

func GetProductIndex(params WPSParams, config *Config) (int, error) {
	if params.Identifier != nil {
		for i := range config.Products {
			if config.Products[i].Name == *params.Identifier {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%s not found in config products", *params.Identifier)
	}
	return -1, fmt.Errorf("WPS request doesn't specify a product")
}
