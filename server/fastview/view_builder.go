package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

var (
	// ErrNoViews means Build was called with no WithView.
	ErrNoViews = errors.New("no views to build: WithView must be called")
	// ErrNoModel means Build was called without WithModel, or with a nil source or convert func.
	ErrNoModel = errors.New("no model specified: WithModel must be called")
)

// ViewBuilderFunc creates one view reading from vms until done closes.
type ViewBuilderFunc[ViewModel any] func(done <-chan struct{}, vms <-chan ViewModel) ViewComponent

// ViewBuilder wires a stream of data models to any number of views. Each model is
// converted once; every view then receives its own copy of the resulting view-model.
type ViewBuilder[DataModel any, ViewModel any] struct {
	models  <-chan DataModel
	convert func(DataModel) ViewModel
	views   []ViewBuilderFunc[ViewModel]
	// nil unless WithContext is called, in which case the views stop with the context.
	done <-chan struct{}
}

func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithModel sets the data model stream and its view-model conversion.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	models <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.models = models
	vb.convert = convert
	return vb
}

// WithView queues a view. Build returns views in the order they were queued.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	view ViewBuilderFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	vb.views = append(vb.views, view)
	return vb
}

func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

// Build starts the conversion and fan-out goroutines and creates the queued views.
func (vb *ViewBuilder[DataModel, ViewModel]) Build() ([]ViewComponent, error) {
	switch {
	case len(vb.views) == 0:
		return nil, ErrNoViews
	case vb.models == nil || vb.convert == nil:
		return nil, ErrNoModel
	}

	vms := channerics.Convert(vb.done, vb.models, vb.convert)
	copies := channerics.Broadcast(vb.done, vms, len(vb.views))

	built := make([]ViewComponent, 0, len(vb.views))
	for i, view := range vb.views {
		built = append(built, view(vb.done, copies[i]))
	}
	return built, nil
}
