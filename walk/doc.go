// Pulling results
//
// A walk starts immediately and produces entries only as fast as the consumer
// takes them, up to Options.HighWaterMark items ahead:
//
//	s := walk.Walk(ctx, "/srv/data", walk.Options{
//		Concurrency:   8,
//		HighWaterMark: 256,
//		MaxDepth:      3,
//	})
//	for path, err := range s.All(ctx) {
//		if err != nil {
//			return err // *walk.AggregateError when some directories failed
//		}
//		fmt.Println(path)
//	}
//
// Stopping
//
// Cancel stops the walk and returns once every directory read already in
// flight has completed; nothing is delivered after it is called:
//
//	path, err := s.Next(ctx)
//	...
//	if err := s.Cancel(ctx); err != nil {
//		return err
//	}
//
// Breaking out of an All loop cancels the walk the same way.
//
// Watch Functionality
//
// Watch registers every directory found by a walk with fsnotify and keeps
// registering directories as they are created:
//
//	opts := walk.WatchOptions{
//		Recursive: true,
//		Depth:     4,
//	}
//	err := walk.Watch(context.Background(), "/path/to/watch", opts, nil)
//
//	// Format output for each event
//	err := walk.WatchWithFormat(context.Background(), "/path/to/watch", opts, "{event}: {base} at {time}")

package walk
