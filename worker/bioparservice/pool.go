package bioparservice

import (
	"fmt"
	"log"
	"time"

	"github.com/nci/biopar/biopar"
)

const (
	DefaultQueueSize = 400
	queueHighWater   = 390
)

type ErrorMsg struct {
	Address string
	Replace bool
	Error   error
}

type Task struct {
	Payload *RetrievalTask
	Resp    chan *RetrievalResult
	Error   chan error
}

func NewTask(payload *RetrievalTask) *Task {
	return &Task{
		Payload: payload,
		Resp:    make(chan *RetrievalResult, 1),
		Error:   make(chan error, 1),
	}
}

// Worker evaluates tasks from the shared queue until the queue closes or
// a task panics, in which case the pool replaces it.
type Worker struct {
	TaskQueue chan *Task
	Address   string
	ErrorMsg  chan *ErrorMsg
	Debug     bool
}

func (w *Worker) Start() {
	go func() {
		for task := range w.TaskQueue {
			if !w.handle(task) {
				return
			}
		}
	}()
}

func (w *Worker) handle(task *Task) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker %s panicked: %v", w.Address, r)
			task.Error <- err
			w.ErrorMsg <- &ErrorMsg{w.Address, true, err}
			ok = false
		}
	}()

	result, err := RunTask(task.Payload)
	if err != nil {
		task.Error <- err
		return true
	}
	if w.Debug {
		log.Printf("%s: %s %dx%d acquired %v in %v", w.Address, result.Variant, result.Height, result.Width, task.Payload.AcquisitionTime(), result.Duration)
	}
	task.Resp <- result
	return true
}

// RunTask evaluates a task. Retrieval failures are reported in the
// result's Error field; the returned error is reserved for tasks that
// cannot be decoded at all.
func RunTask(task *RetrievalTask) (*RetrievalResult, error) {
	if task == nil {
		return nil, fmt.Errorf("nil retrieval task")
	}
	start := time.Now()

	variant, err := biopar.Variant(task.Variant)
	if err != nil {
		return NewFailedResult(task.Variant, err), nil
	}

	p := &biopar.RetrievalPipeline{
		Variant:     variant,
		ScaleFactor: task.ScaleFactor,
		NoData:      task.NoData,
	}
	out, err := p.Retrieve(task.Raster(), task.Angles)
	if err != nil {
		return NewFailedResult(variant.Name(), err), nil
	}

	return &RetrievalResult{
		Variant:   out.Variant,
		Parameter: out.Parameter,
		Height:    int32(out.Height),
		Width:     int32(out.Width),
		Data:      out.Data,
		Valid:     out.Valid,
		NoData:    out.NoData,
		Error:     "OK",
		Duration:  time.Since(start),
	}, nil
}

type ProcessPool struct {
	Pool      []*Worker
	TaskQueue chan *Task
	ErrorMsg  chan *ErrorMsg
	debug     bool
}

func (p *ProcessPool) AddQueue(task *Task) {
	if len(p.TaskQueue) > queueHighWater {
		task.Error <- fmt.Errorf("Pool TaskQueue is full")
		return
	}
	p.TaskQueue <- task
}

func (p *ProcessPool) CreateProcess(idx int) *Worker {
	w := &Worker{
		TaskQueue: p.TaskQueue,
		Address:   fmt.Sprintf("worker_%d_%d", idx, time.Now().UnixNano()),
		ErrorMsg:  p.ErrorMsg,
		Debug:     p.debug,
	}
	w.Start()
	return w
}

func CreateProcessPool(n int, debug bool) (*ProcessPool, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid pool size: %d", n)
	}

	p := &ProcessPool{[]*Worker{}, make(chan *Task, DefaultQueueSize), make(chan *ErrorMsg, n), debug}
	for i := 0; i < n; i++ {
		p.Pool = append(p.Pool, p.CreateProcess(i))
	}

	go func() {
		for err := range p.ErrorMsg {
			if !err.Replace {
				log.Printf("Process: %v, %v", err.Address, err.Error)
				continue
			}
			log.Printf("Process: %v, %v, restarting...", err.Address, err.Error)
			for iw, w := range p.Pool {
				if err.Address == w.Address {
					p.Pool[iw] = p.CreateProcess(iw)
					break
				}
			}
		}
	}()

	return p, nil
}
