package biopar

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports an unknown variant or a variant whose
// coefficient tables disagree with its band list.
type ConfigurationError struct {
	Variant string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if len(e.Variant) == 0 {
		return fmt.Sprintf("biopar configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("biopar configuration error: variant %s: %s", e.Variant, e.Reason)
}

// InputShapeError reports a raster that is missing a band required by the
// variant or whose bands do not share the raster shape.
type InputShapeError struct {
	Band   string
	Reason string
}

func (e *InputShapeError) Error() string {
	if len(e.Band) == 0 {
		return fmt.Sprintf("biopar input error: %s", e.Reason)
	}
	return fmt.Sprintf("biopar input error: band %s: %s", e.Band, e.Reason)
}

func IsConfigurationError(err error) bool {
	_, ok := errors.Cause(err).(*ConfigurationError)
	return ok
}

func IsInputShapeError(err error) bool {
	_, ok := errors.Cause(err).(*InputShapeError)
	return ok
}

func configErrorf(variant string, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Variant: variant, Reason: fmt.Sprintf(format, args...)}
}

func shapeErrorf(band string, format string, args ...interface{}) *InputShapeError {
	return &InputShapeError{Band: band, Reason: fmt.Sprintf(format, args...)}
}
