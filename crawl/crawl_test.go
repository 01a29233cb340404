package main

import (
	"strings"
	"testing"
	"time"

	extr "github.com/nci/biopar/crawl/extractor"
	"github.com/nci/biopar/utils"
)

func TestSceneSQL(t *testing.T) {
	scene := &extr.SceneMetadata{
		SceneID:    "S2A_O'Hara",
		Collection: "/s2/l2a",
		TimeStamp:  time.Date(2019, 3, 1, 0, 2, 3, 0, time.UTC),
		Polygon:    "POLYGON ((149 -35,150 -35,150 -36,149 -35))",
		Angles:     utils.AngleInputs{ViewZenith: 5, SunZenith: 35, SunAzimuth: 150, ViewAzimuth: 105},
	}

	sql := sceneSQL(scene, "")
	for _, want := range []string{
		`'S2A_O''Hara'`,
		`'/s2/l2a'`,
		`'2019-03-01T00:02:03Z'`,
		`st_geomfromtext('POLYGON ((149 -35,150 -35,150 -36,149 -35))', 4326)`,
		`5, 35, 150, 105)`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expecting %s in %s", want, sql)
		}
	}

	if !strings.Contains(sceneSQL(scene, "/s2/l1c"), `'/s2/l1c'`) {
		t.Errorf("collection flag should override the scene collection")
	}
}
