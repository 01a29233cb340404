package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/nci/biopar/utils"
)

type URLInfo struct {
	RawURL string            `json:"raw_url"`
	Host   string            `json:"host"`
	Path   string            `json:"path"`
	Query  map[string]string `json:"query"`
}

// IndexerInfo records the scene angle lookup against the metadata API.
type IndexerInfo struct {
	Duration  time.Duration `json:"duration"`
	URL       URLInfo       `json:"url"`
	SceneID   string        `json:"scene_id"`
	Geometry  string        `json:"geometry"`
	NumScenes int           `json:"num_scenes"`
}

type RPCInfo struct {
	Duration      time.Duration `json:"duration"`
	NumTiles      int           `json:"num_tiles"`
	BytesSent     int64         `json:"bytes_sent"`
	BytesReceived int64         `json:"bytes_received"`
	NumNodes      int           `json:"num_nodes"`
}

type RetrievalInfo struct {
	Product   string            `json:"product"`
	Variant   string            `json:"variant"`
	Height    int               `json:"height"`
	Width     int               `json:"width"`
	NumPixels int               `json:"num_pixels"`
	Stats     utils.RasterStats `json:"stats"`
}

type MetricsInfo struct {
	ReqID       string         `json:"req_id"`
	ReqTime     string         `json:"req_time"`
	ReqDuration time.Duration  `json:"req_duration"`
	URL         URLInfo        `json:"url"`
	RemoteAddr  string         `json:"remote_addr"`
	RemoteHost  string         `json:"remote_host"`
	RemotePort  string         `json:"remote_port"`
	HTTPStatus  int            `json:"http_status"`
	Indexer     *IndexerInfo   `json:"indexer"`
	RPC         *RPCInfo       `json:"rpc"`
	Retrieval   *RetrievalInfo `json:"retrieval"`
}

type MetricsCollector struct {
	Info   *MetricsInfo
	logger Logger
}

func NewMetricsCollector(logger Logger) *MetricsCollector {
	return &MetricsCollector{
		Info: &MetricsInfo{
			ReqID:     uuid.New().String(),
			Indexer:   &IndexerInfo{},
			RPC:       &RPCInfo{},
			Retrieval: &RetrievalInfo{},
		},
		logger: logger,
	}
}

func (m *MetricsCollector) Log() {
	if m.logger != nil {
		m.logger.Log(m.Info)
	}
}

func (i *MetricsInfo) ToJSON() (string, error) {
	i.normaliseNetworkAddr(i.RemoteAddr)
	i.normaliseURLs()
	if i.Indexer != nil && len(i.Indexer.Geometry) == 0 {
		i.Indexer.Geometry = "POLYGON EMPTY"
	}

	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(i); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (i *MetricsInfo) normaliseNetworkAddr(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		i.RemoteHost = host
		i.RemotePort = port
	} else {
		i.RemoteHost = addr
	}
}

func (i *MetricsInfo) normaliseURLs() {
	err := normaliseURL(&i.URL)
	if err != nil {
		log.Printf("metrics: normaliseUrl() error: %v", err)
	}

	if i.Indexer != nil && len(i.Indexer.URL.RawURL) > 0 {
		err = normaliseURL(&i.Indexer.URL)
		if err != nil {
			log.Printf("metrics: indexer: normaliseUrl() error: %v", err)
		}
	}
}

func normaliseURL(u *URLInfo) error {
	r, err := url.Parse(u.RawURL)
	if err != nil {
		return err
	}

	u.Host = r.Host
	u.Path = r.Path
	query, err := utils.ParseQuery(r.RawQuery)
	if err != nil {
		return err
	}

	if u.Query == nil {
		u.Query = make(map[string]string)
	}
	for k, v := range query {
		switch len(v) {
		case 0:
			u.Query[k] = ""
		case 1:
			u.Query[k] = v[0]
		default:
			u.Query[k] = fmt.Sprintf("%v", v)
		}
	}
	return nil
}
