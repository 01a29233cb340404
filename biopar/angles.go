package biopar

import "math"

var degToRad = math.Pi / 180

// SceneAngles holds the scene-wide acquisition geometry in degrees.
// RelativeAzimuth is the signed difference sun azimuth - view azimuth.
type SceneAngles struct {
	ViewZenith      float64 `json:"view_zenith"`
	SunZenith       float64 `json:"sun_zenith"`
	RelativeAzimuth float64 `json:"relative_azimuth"`
}

func SceneAnglesFromAzimuths(viewZenith, sunZenith, sunAzimuth, viewAzimuth float64) SceneAngles {
	return SceneAngles{
		ViewZenith:      viewZenith,
		SunZenith:       sunZenith,
		RelativeAzimuth: sunAzimuth - viewAzimuth,
	}
}

// AngleFeatures are the cosines the network consumes, before normalization.
type AngleFeatures struct {
	ViewZenith      float64
	SunZenith       float64
	RelativeAzimuth float64
}

func DeriveAngleFeatures(a SceneAngles) AngleFeatures {
	return AngleFeatures{
		ViewZenith:      math.Cos(a.ViewZenith * degToRad),
		SunZenith:       math.Cos(a.SunZenith * degToRad),
		RelativeAzimuth: math.Cos(a.RelativeAzimuth * degToRad),
	}
}

// values returns the features in network input order.
func (f AngleFeatures) values() [NumAngleFeatures]float64 {
	return [NumAngleFeatures]float64{f.ViewZenith, f.SunZenith, f.RelativeAzimuth}
}
