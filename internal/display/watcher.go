package display

import "context"

// Watcher reports screen power transitions.
type Watcher interface {
	// Start reports the current power state, then every change.
	// Blocks until ctx is cancelled or an error occurs.
	Start(ctx context.Context, callback func(PowerEvent)) error
}

// staticWatcher reports the screen as on once and never changes.
type staticWatcher struct{}

func (staticWatcher) Start(ctx context.Context, callback func(PowerEvent)) error {
	callback(PowerEvent{On: true})
	<-ctx.Done()
	return nil
}
