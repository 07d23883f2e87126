package output

import (
	"errors"

	"github.com/tkjaer/hops/internal/shared"
)

// Output interface for different output types
type Output interface {
	Progress(e shared.Event)
	Complete(report *shared.Report) error
	Close() error
}

// OutputManager manages multiple outputs
type OutputManager struct {
	outputs []Output
}

func (om *OutputManager) Register(o Output) {
	om.outputs = append(om.outputs, o)
}

// Progress forwards a probing event to every output. It makes OutputManager
// usable as the engine's reporter.
func (om *OutputManager) Progress(e shared.Event) {
	for _, o := range om.outputs {
		o.Progress(e)
	}
}

// Complete hands the final report to every output, even if one fails
func (om *OutputManager) Complete(report *shared.Report) error {
	var errs []error
	for _, o := range om.outputs {
		if err := o.Complete(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (om *OutputManager) Close() error {
	var errs []error
	for _, o := range om.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
