package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/nci/biopar/metrics"
	"github.com/nci/biopar/utils"
	"github.com/pkg/errors"
	"golang.org/x/net/context/ctxhttp"
)

const ISOFormat = "2006-01-02T15:04:05.000Z"

// SceneIndexer fills in the acquisition angles of requests that do not
// carry them by querying the metadata API.
type SceneIndexer struct {
	Context    context.Context
	In         chan *RetrievalRequest
	Out        chan *RetrievalRequest
	Error      chan error
	APIAddress string
	Client     *http.Client
	Metrics    *metrics.MetricsCollector
}

func NewSceneIndexer(ctx context.Context, apiAddr string, errChan chan error) *SceneIndexer {
	return &SceneIndexer{
		Context:    ctx,
		In:         make(chan *RetrievalRequest, 100),
		Out:        make(chan *RetrievalRequest, 100),
		Error:      errChan,
		APIAddress: apiAddr,
		Client:     http.DefaultClient,
	}
}

func (p *SceneIndexer) Run(verbose bool) {
	defer close(p.Out)
	for req := range p.In {
		select {
		case <-p.Context.Done():
			sendError(p.Error, fmt.Errorf("Scene indexer context has been cancel: %v", p.Context.Err()))
			return
		default:
		}

		if req.Angles != nil {
			p.Out <- req
			continue
		}

		if len(p.APIAddress) == 0 {
			sendError(p.Error, fmt.Errorf("request carries no angles and no metadata API is configured"))
			return
		}

		start := time.Now()
		scene, err := p.lookup(req, verbose)
		if p.Metrics != nil {
			p.Metrics.Info.Indexer.Duration += time.Since(start)
		}
		if err != nil {
			sendError(p.Error, errors.Wrap(err, "angle lookup"))
			return
		}

		angles := scene.Angles.SceneAngles()
		req.Angles = &angles
		if req.Time == nil && !scene.TimeStamp.IsZero() {
			ts := scene.TimeStamp
			req.Time = &ts
		}
		if len(req.SceneID) == 0 {
			req.SceneID = scene.SceneID
		}
		if verbose {
			log.Printf("scene %s angles: %+v", scene.SceneID, angles)
		}
		p.Out <- req
	}
}

func (p *SceneIndexer) lookup(req *RetrievalRequest, verbose bool) (*utils.SceneAngleRecord, error) {
	var reqURL string
	var resp *http.Response
	var err error

	if len(req.SceneID) > 0 {
		reqURL = fmt.Sprintf("http://%s%s?angles&scene=%s", p.APIAddress, req.Collection, url.QueryEscape(req.SceneID))
		if verbose {
			log.Printf("mas_url:%s", reqURL)
		}
		resp, err = ctxhttp.Get(p.Context, p.Client, reqURL)
	} else if len(req.FootprintWKT) > 0 {
		timeStr := ""
		if req.Time != nil {
			timeStr = req.Time.UTC().Format(ISOFormat)
		}
		reqURL = fmt.Sprintf("http://%s%s?angles&time=%s", p.APIAddress, req.Collection, url.QueryEscape(timeStr))
		postBody := url.Values{"wkt": {req.FootprintWKT}}
		if verbose {
			log.Printf("mas_url:%s\tpost_body:%v", reqURL, postBody)
		}
		resp, err = ctxhttp.PostForm(p.Context, p.Client, reqURL, postBody)
		if p.Metrics != nil {
			p.Metrics.Info.Indexer.Geometry = req.FootprintWKT
		}
	} else {
		return nil, fmt.Errorf("request carries no angles, scene id or footprint")
	}

	if p.Metrics != nil {
		p.Metrics.Info.Indexer.URL.RawURL = reqURL
		p.Metrics.Info.Indexer.SceneID = req.SceneID
	}
	if err != nil {
		return nil, fmt.Errorf("request to %s failed. Error: %v", reqURL, err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Error parsing response body from %s. Error: %v", reqURL, err)
	}

	var metadata utils.MASAnglesResponse
	err = json.Unmarshal(body, &metadata)
	if err != nil {
		return nil, fmt.Errorf("Problem parsing JSON response from %s. Error: %v", reqURL, err)
	}
	if len(metadata.Error) > 0 {
		return nil, fmt.Errorf("Indexer returned error: %v", metadata.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Indexer returned status %d", resp.StatusCode)
	}
	if p.Metrics != nil {
		p.Metrics.Info.Indexer.NumScenes = len(metadata.Scenes)
	}
	if len(metadata.Scenes) == 0 {
		return nil, fmt.Errorf("no scene found in %s for the request", req.Collection)
	}
	return &metadata.Scenes[0], nil
}

func sendError(errChan chan error, err error) {
	select {
	case errChan <- err:
	default:
	}
}
