package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lib/pq"
	extr "github.com/nci/biopar/crawl/extractor"
)

func ensure(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// sceneSQL upserts a crawled scene into the metadata API table.
func sceneSQL(s *extr.SceneMetadata, collection string) string {
	if len(collection) == 0 {
		collection = s.Collection
	}
	a := s.Angles
	return fmt.Sprintf(`insert into scenes (id, collection, acquired, footprint, view_zenith, sun_zenith, sun_azimuth, view_azimuth)
values (%s, %s, %s, st_multi(st_geomfromtext(%s, 4326)), %v, %v, %v, %v)
on conflict (collection, id) do update set acquired = excluded.acquired, footprint = excluded.footprint,
view_zenith = excluded.view_zenith, sun_zenith = excluded.sun_zenith, sun_azimuth = excluded.sun_azimuth, view_azimuth = excluded.view_azimuth;
`,
		pq.QuoteLiteral(s.SceneID), pq.QuoteLiteral(collection), pq.QuoteLiteral(s.TimeStamp.Format("2006-01-02T15:04:05Z")),
		pq.QuoteLiteral(s.Polygon), a.ViewZenith, a.SunZenith, a.SunAzimuth, a.ViewAzimuth)
}

func main() {
	angleBand := flag.String("band", extr.DefaultAngleBand, "band whose mean incidence angles describe the scene")
	asSQL := flag.Bool("sql", false, "print an upsert for the metadata API scenes table instead of JSON")
	collection := flag.String("collection", "", "collection path, overrides the one in the metadata file")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Please provide a path to a scene metadata file or '-' for reading from stdin")
	}

	path := flag.Arg(0)

	if path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		path = scanner.Text()
	}

	scene, err := extr.ExtractSceneYaml(path, *angleBand)
	ensure(err)

	if *asSQL {
		_, err = os.Stdout.WriteString(sceneSQL(scene, *collection))
		ensure(err)
		return
	}

	if len(*collection) > 0 {
		scene.Collection = *collection
	}
	out, err := json.Marshal(scene)
	ensure(err)

	_, err = os.Stdout.Write(out)
	ensure(err)
}
