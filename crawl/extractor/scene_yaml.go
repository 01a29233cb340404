package extractor

import (
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultAngleBand is the band whose mean incidence angles stand in for
// the whole scene.
const DefaultAngleBand = "B8"

const (
	solarZenithKey    = "MEAN_SOLAR_ZENITH_ANGLE"
	solarAzimuthKey   = "MEAN_SOLAR_AZIMUTH_ANGLE"
	viewZenithPrefix  = "MEAN_INCIDENCE_ZENITH_ANGLE_"
	viewAzimuthPrefix = "MEAN_INCIDENCE_AZIMUTH_ANGLE_"
)

func ExtractSceneYaml(filename string, angleBand string) (*SceneMetadata, error) {
	rawData, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	scene, err := ParseSceneYaml(rawData, angleBand)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", filename, err)
	}
	scene.FileName = filename

	dsPath, _ := filepath.Split(filename)
	for ns, p := range scene.Bands {
		if !filepath.IsAbs(p) {
			scene.Bands[ns] = filepath.Join(dsPath, p)
		}
	}
	return scene, nil
}

func ParseSceneYaml(rawData []byte, angleBand string) (*SceneMetadata, error) {
	if len(angleBand) == 0 {
		angleBand = DefaultAngleBand
	}

	doc := sceneYaml{}
	err := yaml.Unmarshal(rawData, &doc)
	if err != nil {
		return nil, err
	}
	if len(doc.ID) == 0 {
		return nil, fmt.Errorf("scene has no id")
	}

	scene := &SceneMetadata{
		SceneID:    doc.ID,
		Collection: doc.Collection,
		AngleBand:  angleBand,
		Bands:      make(map[string]string),
	}

	timestamp, err := time.Parse(time.RFC3339, doc.Datetime)
	if err != nil {
		log.Printf("invalid timestamp: %v", err)
	} else {
		scene.TimeStamp = timestamp.UTC()
	}

	lookup := func(key string) (float64, error) {
		val, found := doc.Properties[key]
		if !found {
			return 0, fmt.Errorf("property %s not found", key)
		}
		return val, nil
	}

	a := &scene.Angles
	for _, p := range []struct {
		key string
		dst *float64
	}{
		{solarZenithKey, &a.SunZenith},
		{solarAzimuthKey, &a.SunAzimuth},
		{viewZenithPrefix + angleBand, &a.ViewZenith},
		{viewAzimuthPrefix + angleBand, &a.ViewAzimuth},
	} {
		*p.dst, err = lookup(p.key)
		if err != nil {
			return nil, err
		}
	}
	scene.SceneAngles = a.SceneAngles()

	scene.Polygon, err = polygonWKT(doc.Geometry)
	if err != nil {
		return nil, err
	}

	for ns, band := range doc.Bands {
		if band != nil && len(band.Path) > 0 {
			scene.Bands[ns] = band.Path
		}
	}
	return scene, nil
}

func polygonWKT(g sceneGeometry) (string, error) {
	if !strings.EqualFold(g.Type, "Polygon") {
		return "", fmt.Errorf("geometry type %q not supported, expecting Polygon", g.Type)
	}
	if len(g.Coordinates) == 0 {
		return "", fmt.Errorf("polygon has no rings")
	}

	rings := make([]string, 0, len(g.Coordinates))
	for _, ring := range g.Coordinates {
		if len(ring) < 4 {
			return "", fmt.Errorf("polygon ring has %d points, expecting at least 4", len(ring))
		}
		pts := make([]string, 0, len(ring))
		for _, pt := range ring {
			if len(pt) < 2 {
				return "", fmt.Errorf("invalid polygon point %v", pt)
			}
			pts = append(pts, strconv.FormatFloat(pt[0], 'f', -1, 64)+" "+strconv.FormatFloat(pt[1], 'f', -1, 64))
		}
		rings = append(rings, "("+strings.Join(pts, ",")+")")
	}
	return "POLYGON (" + strings.Join(rings, ",") + ")", nil
}

// BandNames returns the crawled band namespaces in order.
func (s *SceneMetadata) BandNames() []string {
	names := make([]string, 0, len(s.Bands))
	for ns := range s.Bands {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}
