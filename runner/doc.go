// Package runner ranks many independent topics concurrently.
//
// Each topic gets its own graph, and therefore its own spill file. A topic
// that fails writes no output and never affects the others. Worker slots, a
// memory budget and the I/O rate are shared through a resource.Controller.
//
//	r, err := runner.New(blobstore.NewLocalStore("out"),
//	    runner.WithController(resource.NewController(resource.Config{MaxWorkers: 4})),
//	    runner.WithGraphOptions(rankgo.WithDanglingNodeHandling(true)),
//	)
//	reports := r.Run(ctx, jobs)
package runner
