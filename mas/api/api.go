// Metadata API
// Copyright (c) 2017, NCI, Australian National University.

package main

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/nci/biopar/utils"
	"github.com/nci/gomemcache/memcache"
	"golang.org/x/crypto/blake2b"
)

var (
	dbName     = flag.String("database", "mas", "database name")
	dbUser     = flag.String("user", "api", "database user name")
	dbPool     = flag.Int("pool", 8, "database pool size")
	dbLimit    = flag.Int("limit", 64, "database concurrent requests")
	httpPort   = flag.Int("port", 8080, "http port")
	mcURI      = flag.String("memcache", "", "memcache uri host:port")
	initSchema = flag.Bool("init_schema", false, "create the scenes table and exit")
)

// SceneStore answers angle lookups for a collection.
type SceneStore interface {
	SceneByID(collection, sceneID string) ([]utils.SceneAngleRecord, error)
	NearestScene(collection, wkt, isoTime string) ([]utils.SceneAngleRecord, error)
}

// ResponseCache holds encoded responses keyed by request hash.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type memcacheCache struct {
	client *memcache.Client
}

func (c *memcacheCache) Get(key string) ([]byte, bool) {
	item, err := c.client.Get(key)
	if err != nil {
		return nil, false
	}
	return item.Value, true
}

func (c *memcacheCache) Set(key string, value []byte) {
	// don't care about errors; memcache may not necessarily retain this anyway
	c.client.Set(&memcache.Item{Key: key, Value: value})
}

type pqStore struct {
	db *sql.DB
}

const schemaSQL = `
create extension if not exists postgis;
create table if not exists scenes (
	id           text not null,
	collection   text not null,
	acquired     timestamptz not null,
	footprint    geometry(MultiPolygon, 4326),
	view_zenith  double precision not null,
	sun_zenith   double precision not null,
	sun_azimuth  double precision not null,
	view_azimuth double precision not null,
	primary key (collection, id)
);
create index if not exists scenes_footprint_idx on scenes using gist (footprint);
create index if not exists scenes_acquired_idx on scenes (collection, acquired);
`

const sceneColumns = `id, collection, acquired, view_zenith, sun_zenith, sun_azimuth, view_azimuth`

func (s *pqStore) SceneByID(collection, sceneID string) ([]utils.SceneAngleRecord, error) {
	rows, err := s.db.Query(
		`select `+sceneColumns+` from scenes where collection = $1 and id = $2`,
		collection, sceneID)
	if err != nil {
		return nil, err
	}
	return scanScenes(rows)
}

// NearestScene returns the scene intersecting wkt closest in time to
// isoTime. Without a time the latest acquisition wins.
func (s *pqStore) NearestScene(collection, wkt, isoTime string) ([]utils.SceneAngleRecord, error) {
	// The nullif() noise is to coerce Go's empty string zero values for
	// missing parameters into proper null arguments.
	rows, err := s.db.Query(
		`select `+sceneColumns+` from scenes
		where collection = $1
		and st_intersects(footprint, st_geomfromtext($2, 4326))
		order by coalesce(abs(extract(epoch from acquired - nullif($3,'')::timestamptz)), -extract(epoch from acquired))
		limit 1`,
		collection, wkt, isoTime)
	if err != nil {
		return nil, err
	}
	return scanScenes(rows)
}

func scanScenes(rows *sql.Rows) ([]utils.SceneAngleRecord, error) {
	defer rows.Close()
	var scenes []utils.SceneAngleRecord
	for rows.Next() {
		var rec utils.SceneAngleRecord
		a := &rec.Angles
		if err := rows.Scan(&rec.SceneID, &rec.Collection, &rec.TimeStamp, &a.ViewZenith, &a.SunZenith, &a.SunAzimuth, &a.ViewAzimuth); err != nil {
			return nil, err
		}
		rec.TimeStamp = rec.TimeStamp.UTC()
		scenes = append(scenes, rec)
	}
	return scenes, rows.Err()
}

// Spit out a simple JSON-formatted error message for Content-Type: application/json
func httpJSONError(response http.ResponseWriter, err error, status int) {
	http.Error(response, fmt.Sprintf(`{ "error": %q }`, err.Error()), status)
}

type apiHandler struct {
	store SceneStore
	cache ResponseCache
}

// cacheKey hashes the request URI together with any form body.
func cacheKey(request *http.Request) string {
	buff := blake2b.Sum256([]byte(request.URL.RequestURI() + "\x00" + request.PostForm.Encode()))
	return hex.EncodeToString(buff[:])
}

func (h *apiHandler) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "application/json")

	if err := request.ParseForm(); err != nil {
		httpJSONError(response, err, 400)
		return
	}

	var hash string
	if h.cache != nil {
		hash = cacheKey(request)
		if cached, ok := h.cache.Get(hash); ok {
			response.Write(cached)
			return
		}
	}

	query := request.URL.Query()
	if _, ok := query["angles"]; !ok {
		httpJSONError(response, errors.New("unknown operation; currently supported: ?angles"), 400)
		return
	}

	collection := strings.TrimSuffix(request.URL.Path, "/")
	sceneID := request.FormValue("scene")
	wkt := request.FormValue("wkt")
	isoTime := request.FormValue("time")

	var scenes []utils.SceneAngleRecord
	var err error
	switch {
	case len(sceneID) > 0:
		scenes, err = h.store.SceneByID(collection, sceneID)
	case len(wkt) > 0:
		if len(isoTime) > 0 {
			if _, e := time.Parse(time.RFC3339, isoTime); e != nil {
				httpJSONError(response, fmt.Errorf("invalid time %s: %v", isoTime, e), 400)
				return
			}
		}
		scenes, err = h.store.NearestScene(collection, wkt, isoTime)
	default:
		httpJSONError(response, errors.New("?angles needs scene or wkt"), 400)
		return
	}

	if err != nil {
		httpJSONError(response, err, 400)
		return
	}

	payload, err := json.Marshal(&utils.MASAnglesResponse{Scenes: scenes})
	if err != nil {
		httpJSONError(response, err, 500)
		return
	}
	response.Write(payload)

	if h.cache != nil {
		h.cache.Set(hash, payload)
	}
}

func main() {

	flag.Parse()

	log.Printf("dbUser %s dbName %s dbPool %d httpPort %d", *dbUser, *dbName, *dbPool, *httpPort)

	dbinfo := fmt.Sprintf("user=%s host=/var/run/postgresql dbname=%s sslmode=disable", *dbUser, *dbName)

	db, err := sql.Open("postgres", dbinfo)
	if err != nil {
		panic(err)
	}

	defer db.Close()

	if *initSchema {
		if _, err := db.Exec(schemaSQL); err != nil {
			log.Fatalf("schema creation failed: %v", err)
		}
		return
	}

	db.SetMaxIdleConns(*dbPool)
	db.SetMaxOpenConns(*dbLimit)

	h := &apiHandler{store: &pqStore{db: db}}
	if *mcURI != "" {
		// lazy connection; errors returned in .Get
		h.cache = &memcacheCache{client: memcache.New(*mcURI)}
	}

	http.Handle("/", h)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", *httpPort), nil))
}
