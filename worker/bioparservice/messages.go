package bioparservice

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/nci/biopar/biopar"
	"github.com/pkg/errors"
)

// RetrievalTask is one tile of scaled digital numbers for a variant.
type RetrievalTask struct {
	Variant     string
	Height      int32
	Width       int32
	Bands       map[string][]float64
	Angles      biopar.SceneAngles
	ScaleFactor float64
	NoData      float64
	AcquiredAt  *timestamp.Timestamp
}

type RetrievalResult struct {
	Variant   string
	Parameter string
	Height    int32
	Width     int32
	Data      []float64
	Valid     []bool
	NoData    float64
	// Error is "OK" on success.
	Error    string
	Duration time.Duration

	// set when the failure is one of biopar's typed errors
	ConfigError *biopar.ConfigurationError
	ShapeError  *biopar.InputShapeError
}

// NewFailedResult records err on a result for variant.
func NewFailedResult(variant string, err error) *RetrievalResult {
	res := &RetrievalResult{Variant: variant, Error: err.Error()}
	switch e := errors.Cause(err).(type) {
	case *biopar.ConfigurationError:
		res.ConfigError = e
	case *biopar.InputShapeError:
		res.ShapeError = e
	}
	return res
}

// Err rebuilds the worker-side error, nil on success.
func (r *RetrievalResult) Err() error {
	switch {
	case r.Error == "OK":
		return nil
	case r.ConfigError != nil:
		return r.ConfigError
	case r.ShapeError != nil:
		return r.ShapeError
	default:
		return fmt.Errorf("%s", r.Error)
	}
}

func NewRetrievalTask(variant string, r *biopar.Raster, angles biopar.SceneAngles, scaleFactor, noData float64, acquiredAt *time.Time) (*RetrievalTask, error) {
	task := &RetrievalTask{
		Variant:     variant,
		Height:      int32(r.Height),
		Width:       int32(r.Width),
		Bands:       r.Bands,
		Angles:      angles,
		ScaleFactor: scaleFactor,
		NoData:      noData,
	}
	if acquiredAt != nil {
		ts, err := ptypes.TimestampProto(*acquiredAt)
		if err != nil {
			return nil, err
		}
		task.AcquiredAt = ts
	}
	return task, nil
}

func (t *RetrievalTask) Raster() *biopar.Raster {
	return &biopar.Raster{Height: int(t.Height), Width: int(t.Width), Bands: t.Bands}
}

// AcquisitionTime returns the zero time when the task carries none.
func (t *RetrievalTask) AcquisitionTime() time.Time {
	if t.AcquiredAt == nil {
		return time.Time{}
	}
	ts, err := ptypes.Timestamp(t.AcquiredAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func (r *RetrievalResult) ParameterRaster() *biopar.ParameterRaster {
	return &biopar.ParameterRaster{
		Parameter: r.Parameter,
		Variant:   r.Variant,
		Height:    int(r.Height),
		Width:     int(r.Width),
		Data:      r.Data,
		Valid:     r.Valid,
		NoData:    r.NoData,
	}
}
