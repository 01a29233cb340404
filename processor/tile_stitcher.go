package processor

import (
	"fmt"

	"github.com/nci/biopar/biopar"
)

// TileStitcher places retrieved tiles back into the scene. The scene is
// emitted once all of its tiles have arrived.
type TileStitcher struct {
	In    chan *TileResult
	Out   chan *biopar.ParameterRaster
	Error chan error
}

func NewTileStitcher(errChan chan error) *TileStitcher {
	return &TileStitcher{
		In:    make(chan *TileResult, 100),
		Out:   make(chan *biopar.ParameterRaster, 100),
		Error: errChan,
	}
}

func (stch *TileStitcher) Run() {
	defer close(stch.Out)

	var canvas *biopar.ParameterRaster
	var seen []bool
	received := 0
	numTiles := 0

	for res := range stch.In {
		t := res.Tile
		if canvas == nil {
			canvas = biopar.NewParameterRaster(res.Result.Parameter, res.Result.Variant, t.SceneHeight, t.SceneWidth, res.Result.NoData)
			seen = make([]bool, t.NumTiles)
			numTiles = t.NumTiles
		}

		if t.Index < 0 || t.Index >= numTiles || seen[t.Index] {
			sendError(stch.Error, fmt.Errorf("unexpected tile %d of %d", t.Index, numTiles))
			stch.drain()
			return
		}
		if t.SceneWidth != canvas.Width || t.OffY+res.Result.Height > canvas.Height {
			sendError(stch.Error, fmt.Errorf("tile %d at row %d does not fit the %dx%d scene", t.Index, t.OffY, canvas.Height, canvas.Width))
			stch.drain()
			return
		}

		lo := t.OffY * canvas.Width
		copy(canvas.Data[lo:], res.Result.Data)
		copy(canvas.Valid[lo:], res.Result.Valid)
		seen[t.Index] = true
		received++

		if received == numTiles {
			stch.Out <- canvas
			return
		}
	}

	if canvas != nil && received < numTiles {
		sendError(stch.Error, fmt.Errorf("retrieval incomplete: %d of %d tiles", received, numTiles))
	}
}

// drain lets upstream stages finish after a failure.
func (stch *TileStitcher) drain() {
	for range stch.In {
	}
}
