// Package assets streams GPU-backed assets and manages their lifetime.
//
// # Overview
//
// A [Table] maps [HandleID]s to records holding a payload (a texture, mesh,
// material, shader, font or any user type), a reference count, a version
// and a needs-rebuild flag. Applications hold typed [Handle]s. Loads return
// a handle immediately, bound to a default payload, and build the real one
// on a worker goroutine.
//
// # Quick Start
//
//	ctx, err := render.OpenNoop()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	table, err := assets.New(ctx, assets.WithRootPath("res"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer table.Close()
//
//	albedo := table.LoadColorTexture("brick.png", true)
//	defer albedo.Release()
//
//	for frame := range 3 {
//	    table.Sync()
//	    tex, _ := assets.Get(table, albedo)
//	    v, _ := assets.GetVersion(table, albedo)
//	    fmt.Println(frame, tex.Label(), v)
//	}
//
// # Synchronization
//
// Only the owning goroutine touches the records. Everything else talks to
// the table through [PendingQueues]: cloning a handle queues an increment,
// releasing it queues a decrement, loaders queue completions and failures,
// and any goroutine may queue a dirty mark. [Table.Sync], called once per
// frame, applies increments, then completions, then dirty marks, then
// decrements. Records whose count drops to zero are collected and their ids
// never resolve again.
//
// # Versions and rebuilds
//
// The version of a record starts at 0 and is bumped only when its payload is
// replaced. Consumers cache derived GPU bindings keyed by id and version
// (see package bindcache) and rebuild them when the version changes or
// [Table.NeedsRebuild] reports true. The table never clears that flag.
//
// # Failures
//
// A failed load leaves the asset on its default payload. The failure is
// logged (rate limited per source) and delivered to observers as
// [EventLoadFailed] by the next Sync.
//
// # Deferred destruction
//
// Payloads the table built are destroyed when superseded or collected, but
// only after the configured number of frames in flight, so command buffers
// still referencing them can complete. See [WithFramesInFlight].
//
// # Hot reload
//
// With [WithHotReload], file-backed loads are re-run when the file changes,
// producing a new version of the same asset.
//
// # Logging
//
// By default the package produces no log output. Use [SetLogger] to enable
// it.
package assets
