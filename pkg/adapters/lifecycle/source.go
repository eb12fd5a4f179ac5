// Package lifecycle adapts the database watch stream into the generic
// lifecycle event pipeline, so a host application can supervise document
// change events alongside its other runtime sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/mitsuhiko/yamldb/pkg/core"
)

// watchSource forwards document change events, optionally restricted to a
// set of collections.
type watchSource struct {
	events      <-chan core.Event
	collections map[string]struct{}
	out         chan lifecycle.Event
}

// NewSource wraps a watch channel (as returned by Database.Watch) as a
// lifecycle.Source. When collection names are given, events for any other
// collection are dropped.
func NewSource(events <-chan core.Event, collections ...string) lifecycle.Source {
	var filter map[string]struct{}
	if len(collections) > 0 {
		filter = make(map[string]struct{}, len(collections))
		for _, name := range collections {
			filter[name] = struct{}{}
		}
	}
	return &watchSource{
		events:      events,
		collections: filter,
		out:         make(chan lifecycle.Event),
	}
}

func (s *watchSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is cancelled or the watch channel closes;
// the outgoing channel closes in either case. The forwarding goroutine runs
// under lifecycle.Go so the bridge itself is supervised.
func (s *watchSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.collections != nil {
					if _, ok := s.collections[e.Collection]; !ok {
						continue
					}
				}
				// core.Event implements lifecycle.Event (has String())
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
