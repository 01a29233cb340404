package processor

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/nci/biopar/metrics"
	pb "github.com/nci/biopar/worker/bioparservice"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
	"google.golang.org/grpc"
)

const DefaultGrpcConcLimit = 16

// RetrievalGRPC sends tiles to the worker nodes. Each connected node runs
// at most GrpcConcLimit tiles at a time.
type RetrievalGRPC struct {
	Context context.Context
	In      chan *RetrievalTile
	Out     chan *TileResult
	Error   chan error
	Clients []string
	Metrics *metrics.MetricsCollector

	metricsLock sync.Mutex
}

func NewRetrievalGRPC(ctx context.Context, serverAddress []string, errChan chan error) *RetrievalGRPC {
	return &RetrievalGRPC{
		Context: ctx,
		In:      make(chan *RetrievalTile, 100),
		Out:     make(chan *TileResult, 100),
		Error:   errChan,
		Clients: serverAddress,
	}
}

func (gi *RetrievalGRPC) Run(verbose bool) {
	if verbose {
		defer log.Printf("retrieval grpc done")
	}
	defer close(gi.Out)
	start := time.Now()

	var connPool []*grpc.ClientConn
	var cLimiter *ConcLimiter
	nTiles := 0
	for tile := range gi.In {
		if connPool == nil {
			var err error
			connPool, err = gi.dial(tile.MaxGrpcRecvMsgSize)
			if err != nil {
				sendError(gi.Error, err)
				return
			}
			for _, conn := range connPool {
				defer conn.Close()
			}

			concLimit := tile.GrpcConcLimit
			if concLimit <= 0 {
				concLimit = DefaultGrpcConcLimit
			}
			cLimiter = NewConcLimiter(concLimit * len(connPool))
		}

		select {
		case <-gi.Context.Done():
			sendError(gi.Error, fmt.Errorf("Retrieval gRPC context has been cancel: %v", gi.Context.Err()))
			cLimiter.Wait()
			return
		default:
		}

		cLimiter.Increase()
		go func(t *RetrievalTile, conn *grpc.ClientConn) {
			defer cLimiter.Decrease()
			res, err := gi.retrieve(t, conn)
			if err != nil {
				sendError(gi.Error, err)
				return
			}
			select {
			case gi.Out <- res:
			case <-gi.Context.Done():
			}
		}(tile, connPool[nTiles%len(connPool)])
		nTiles++
	}

	if cLimiter != nil {
		cLimiter.Wait()
	}

	if gi.Metrics != nil {
		gi.Metrics.Info.RPC.NumTiles += nTiles
		gi.Metrics.Info.RPC.NumNodes = len(connPool)
		gi.Metrics.Info.RPC.Duration += time.Since(start)
	}
}

func (gi *RetrievalGRPC) dial(maxRecvMsgSize int) ([]*grpc.ClientConn, error) {
	if len(gi.Clients) == 0 {
		return nil, fmt.Errorf("no gRPC servers configured")
	}

	opts := []grpc.DialOption{grpc.WithInsecure()}
	if maxRecvMsgSize > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvMsgSize)))
	}

	clientIdx := make([]int, len(gi.Clients))
	for ic := range clientIdx {
		clientIdx[ic] = ic
	}
	rand.Shuffle(len(clientIdx), func(i, j int) { clientIdx[i], clientIdx[j] = clientIdx[j], clientIdx[i] })

	var connPool []*grpc.ClientConn
	for _, ic := range clientIdx {
		conn, err := grpc.Dial(gi.Clients[ic], opts...)
		if err != nil {
			log.Printf("gRPC connection problem: %v", err)
			continue
		}
		connPool = append(connPool, conn)
	}

	if len(connPool) == 0 {
		return nil, fmt.Errorf("All gRPC servers offline")
	}
	return connPool, nil
}

func (gi *RetrievalGRPC) retrieve(t *RetrievalTile, conn *grpc.ClientConn) (*TileResult, error) {
	task, err := pb.NewRetrievalTask(t.Variant.Name(), t.Raster, t.Angles, t.ScaleFactor, t.NoData, t.AcquiredAt)
	if err != nil {
		return nil, err
	}

	r, err := pb.NewBioparClient(conn).Retrieve(gi.Context, task)
	if err != nil {
		return nil, err
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "worker error on tile %d", t.Index)
	}

	out := r.ParameterRaster()
	if out.Height != t.Raster.Height || out.Width != t.Raster.Width {
		return nil, fmt.Errorf("worker returned a %dx%d tile, expecting %dx%d", out.Height, out.Width, t.Raster.Height, t.Raster.Width)
	}

	if gi.Metrics != nil {
		gi.metricsLock.Lock()
		gi.Metrics.Info.RPC.BytesSent += int64(8 * len(t.Raster.Bands) * t.Raster.Size())
		gi.Metrics.Info.RPC.BytesReceived += int64(9 * len(out.Data))
		gi.metricsLock.Unlock()
	}
	return &TileResult{Tile: t, Result: out}, nil
}
