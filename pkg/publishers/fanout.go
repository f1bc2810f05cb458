package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout publishes each event to every publisher it holds.
type Fanout struct {
	pubs []Publisher
}

// NewFanout returns a Fanout over pubs, skipping nil entries.
func NewFanout(pubs ...Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.pubs = append(f.pubs, p)
		}
	}
	return f
}

// Len returns the number of publishers.
func (f *Fanout) Len() int { return len(f.pubs) }

// Publish delivers evt to all publishers. A failing publisher does not stop
// the others; their errors are joined.
func (f *Fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range f.pubs {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
