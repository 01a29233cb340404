package processor

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// BandComposer evaluates the product band expressions over the request
// sources, producing the raster the network reads.
type BandComposer struct {
	Context context.Context
	In      chan *RetrievalRequest
	Out     chan *RetrievalRequest
	Error   chan error
}

func NewBandComposer(ctx context.Context, errChan chan error) *BandComposer {
	return &BandComposer{
		Context: ctx,
		In:      make(chan *RetrievalRequest, 100),
		Out:     make(chan *RetrievalRequest, 100),
		Error:   errChan,
	}
}

func (bc *BandComposer) Run() {
	defer close(bc.Out)
	for req := range bc.In {
		select {
		case <-bc.Context.Done():
			sendError(bc.Error, fmt.Errorf("Band composer context has been cancel: %v", bc.Context.Err()))
			return
		default:
		}

		if req.Variant == nil || req.BandExprs == nil {
			sendError(bc.Error, fmt.Errorf("product %s has no variant or band expressions", req.Product))
			return
		}

		raster, err := req.BandExprs.Compose(req.Height, req.Width, req.Sources)
		if err != nil {
			sendError(bc.Error, errors.Wrapf(err, "composing %s bands", req.Product))
			return
		}
		if err := raster.Validate(req.Variant.Bands()); err != nil {
			sendError(bc.Error, errors.Wrapf(err, "composing %s bands", req.Product))
			return
		}

		req.Raster = raster
		bc.Out <- req
	}
}
