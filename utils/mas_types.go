package utils

import "time"

// SceneAngleRecord is one scene of a metadata API angle lookup.
type SceneAngleRecord struct {
	SceneID    string      `json:"scene_id"`
	Collection string      `json:"collection"`
	TimeStamp  time.Time   `json:"timestamp"`
	Angles     AngleInputs `json:"angles"`
}

// MASAnglesResponse is the body returned by the metadata API for
// ?angles queries.
type MASAnglesResponse struct {
	Error  string             `json:"error"`
	Scenes []SceneAngleRecord `json:"scenes"`
}
