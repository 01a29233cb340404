package processor

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/nci/biopar/biopar"
	"github.com/nci/biopar/metrics"
	"golang.org/x/sync/errgroup"
)

// LocalRetriever runs the network in-process over the incoming tiles with
// at most ConcLimit tiles in flight.
type LocalRetriever struct {
	Context   context.Context
	In        chan *RetrievalTile
	Out       chan *TileResult
	Error     chan error
	ConcLimit int
	Metrics   *metrics.MetricsCollector
}

func NewLocalRetriever(ctx context.Context, errChan chan error) *LocalRetriever {
	return &LocalRetriever{
		Context:   ctx,
		In:        make(chan *RetrievalTile, 100),
		Out:       make(chan *TileResult, 100),
		Error:     errChan,
		ConcLimit: runtime.NumCPU(),
	}
}

func (lr *LocalRetriever) Run(verbose bool) {
	defer close(lr.Out)
	start := time.Now()

	g, ctx := errgroup.WithContext(lr.Context)
	if lr.ConcLimit > 0 {
		g.SetLimit(lr.ConcLimit)
	}

	nTiles := 0
	for tile := range lr.In {
		tile := tile
		nTiles++
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := RetrieveTile(tile)
			if err != nil {
				return err
			}
			select {
			case lr.Out <- &TileResult{Tile: tile, Result: res}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		sendError(lr.Error, err)
	}
	if lr.Metrics != nil {
		lr.Metrics.Info.RPC.NumTiles += nTiles
		lr.Metrics.Info.RPC.Duration += time.Since(start)
	}
	if verbose {
		log.Printf("local retrieval: %d tiles in %v", nTiles, time.Since(start))
	}
}

// RetrieveTile evaluates one tile with the product settings.
func RetrieveTile(tile *RetrievalTile) (*biopar.ParameterRaster, error) {
	p := &biopar.RetrievalPipeline{
		Variant:     tile.Variant,
		ScaleFactor: tile.ScaleFactor,
		NoData:      tile.NoData,
	}
	return p.Retrieve(tile.Raster, tile.Angles)
}
