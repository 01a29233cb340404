package bioparservice

import (
	"fmt"

	"golang.org/x/net/context"
)

// Server answers Retrieve calls by queueing tasks on a worker pool.
type Server struct {
	Pool *ProcessPool
}

func NewServer(pool *ProcessPool) *Server {
	return &Server{Pool: pool}
}

func (s *Server) Retrieve(ctx context.Context, in *RetrievalTask) (*RetrievalResult, error) {
	task := NewTask(in)
	s.Pool.AddQueue(task)

	select {
	case out := <-task.Resp:
		return out, nil
	case err := <-task.Error:
		return NewFailedResult(in.Variant, err), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("retrieval cancelled: %v", ctx.Err())
	}
}
