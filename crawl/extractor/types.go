package extractor

import (
	"time"

	"github.com/nci/biopar/biopar"
	"github.com/nci/biopar/utils"
)

// SceneMetadata is what the crawler records for one scene: the angles the
// metadata API serves plus where the band files live.
type SceneMetadata struct {
	FileName    string             `json:"filename,omitempty"`
	SceneID     string             `json:"scene_id"`
	Collection  string             `json:"collection,omitempty"`
	TimeStamp   time.Time          `json:"timestamp"`
	Polygon     string             `json:"polygon"`
	AngleBand   string             `json:"angle_band"`
	Angles      utils.AngleInputs  `json:"angles"`
	SceneAngles biopar.SceneAngles `json:"scene_angles"`
	Bands       map[string]string  `json:"bands,omitempty"`
}

type sceneGeometry struct {
	Type        string
	Coordinates [][][]float64
}

type sceneBand struct {
	Path string
}

type sceneYaml struct {
	ID         string
	Collection string
	Datetime   string
	Properties map[string]float64
	Geometry   sceneGeometry
	Bands      map[string]*sceneBand
}
