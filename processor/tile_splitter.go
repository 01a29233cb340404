package processor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nci/biopar/biopar"
)

const DefaultTileRows = 256

// TileSplitter cuts a composed scene into blocks of TileRows full rows.
// Pixels are independent so any split yields the same values.
type TileSplitter struct {
	Context context.Context
	In      chan *RetrievalRequest
	Out     chan *RetrievalTile
	Error   chan error
}

func NewTileSplitter(ctx context.Context, errChan chan error) *TileSplitter {
	return &TileSplitter{
		Context: ctx,
		In:      make(chan *RetrievalRequest, 100),
		Out:     make(chan *RetrievalTile, 100),
		Error:   errChan,
	}
}

func (s *TileSplitter) Run(verbose bool) {
	defer close(s.Out)
	start := time.Now()
	for req := range s.In {
		if req.Raster == nil || req.Angles == nil {
			sendError(s.Error, fmt.Errorf("tile splitter received an incomplete request for %s", req.Product))
			return
		}

		tiles := SplitRows(req)
		for _, tile := range tiles {
			select {
			case <-s.Context.Done():
				sendError(s.Error, fmt.Errorf("Tile splitter context has been cancel: %v", s.Context.Err()))
				return
			case s.Out <- tile:
			}
		}
		if verbose {
			log.Printf("Splitter: %d tiles of %d rows in %v", len(tiles), req.TileRows, time.Since(start))
		}
	}
}

// SplitRows returns the row blocks of a composed request. Tiles carry only
// the variant bands and share their backing arrays with the request.
func SplitRows(req *RetrievalRequest) []*RetrievalTile {
	rows := req.TileRows
	if rows <= 0 {
		rows = DefaultTileRows
	}

	numTiles := (req.Height + rows - 1) / rows
	if numTiles == 0 {
		numTiles = 1
	}

	bands := req.Variant.Bands()
	tiles := make([]*RetrievalTile, 0, numTiles)
	for i := 0; i < numTiles; i++ {
		offY := i * rows
		height := rows
		if offY+height > req.Height {
			height = req.Height - offY
		}

		r := biopar.NewRaster(height, req.Width)
		lo, hi := offY*req.Width, (offY+height)*req.Width
		for _, band := range bands {
			r.AddBand(band, req.Raster.Bands[band][lo:hi])
		}

		tiles = append(tiles, &RetrievalTile{
			ConfigPayLoad: req.ConfigPayLoad,
			Raster:        r,
			Angles:        *req.Angles,
			OffY:          offY,
			Index:         i,
			NumTiles:      numTiles,
			SceneHeight:   req.Height,
			SceneWidth:    req.Width,
			AcquiredAt:    req.Time,
		})
	}
	return tiles
}
