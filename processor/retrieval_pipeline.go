package processor

import (
	"context"
	"fmt"

	"github.com/nci/biopar/biopar"
	"github.com/nci/biopar/metrics"
)

type RetrievalPipeline struct {
	Context    context.Context
	Error      chan error
	RPCAddress []string
	MASAddress string
	Metrics    *metrics.MetricsCollector
}

func InitRetrievalPipeline(ctx context.Context, masAddr string, rpcAddr []string, errChan chan error) *RetrievalPipeline {
	return &RetrievalPipeline{
		Context:    ctx,
		Error:      errChan,
		RPCAddress: rpcAddr,
		MASAddress: masAddr,
	}
}

// Process wires indexer, composer, splitter, retriever and stitcher. Tiles
// go to the worker nodes when any are configured and are evaluated
// in-process otherwise. The second channel is closed once the retriever
// stage has exited and written its metrics.
func (dp *RetrievalPipeline) Process(req *RetrievalRequest, verbose bool) (chan *biopar.ParameterRaster, chan struct{}) {
	i := NewSceneIndexer(dp.Context, dp.MASAddress, dp.Error)
	i.Metrics = dp.Metrics
	go func() {
		i.In <- req
		close(i.In)
	}()

	bc := NewBandComposer(dp.Context, dp.Error)
	ts := NewTileSplitter(dp.Context, dp.Error)
	st := NewTileStitcher(dp.Error)

	bc.In = i.Out
	ts.In = bc.Out

	retrieverDone := make(chan struct{})
	if len(dp.RPCAddress) > 0 {
		grpcRetriever := NewRetrievalGRPC(dp.Context, dp.RPCAddress, dp.Error)
		grpcRetriever.Metrics = dp.Metrics
		grpcRetriever.In = ts.Out
		st.In = grpcRetriever.Out
		go func() {
			defer close(retrieverDone)
			grpcRetriever.Run(verbose)
		}()
	} else {
		lr := NewLocalRetriever(dp.Context, dp.Error)
		lr.Metrics = dp.Metrics
		lr.In = ts.Out
		st.In = lr.Out
		go func() {
			defer close(retrieverDone)
			lr.Run(verbose)
		}()
	}

	go i.Run(verbose)
	go bc.Run()
	go ts.Run(verbose)
	go st.Run()

	return st.Out, retrieverDone
}

// Retrieve runs the pipeline for one request and waits for the scene or
// the first error. It returns only after the retriever stage has finished,
// so the caller may read Metrics.
func (dp *RetrievalPipeline) Retrieve(req *RetrievalRequest, verbose bool) (*biopar.ParameterRaster, error) {
	ctx, cancel := context.WithCancel(dp.Context)
	defer cancel()

	run := *dp
	run.Context = ctx
	out, retrieverDone := run.Process(req, verbose)

	res, err := run.wait(req, out)
	if err != nil {
		cancel()
	}
	<-retrieverDone
	return res, err
}

func (dp *RetrievalPipeline) wait(req *RetrievalRequest, out chan *biopar.ParameterRaster) (*biopar.ParameterRaster, error) {
	select {
	case res, ok := <-out:
		if ok {
			return res, nil
		}
		select {
		case err := <-dp.Error:
			return nil, err
		default:
			return nil, fmt.Errorf("retrieval of %s produced no result", req.Product)
		}
	case err := <-dp.Error:
		return nil, err
	case <-dp.Context.Done():
		return nil, fmt.Errorf("retrieval cancelled: %v", dp.Context.Err())
	}
}
