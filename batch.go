package cdef

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one frame of a FilterFrames batch. Stats is filled in when the
// frame has been filtered.
type Job[P Pixel] struct {
	Frame *Frame[P]
	Grid  *BlockGrid
	Stats Stats
}

// FilterFrames filters independent frames concurrently, at most
// parallelism at a time (GOMAXPROCS when parallelism <= 0). Every frame
// gets its own scratch buffers. The first error cancels the frames not yet
// started and is returned.
func FilterFrames[P Pixel](ctx context.Context, jobs []Job[P], opts *Options, parallelism int) error {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := Filter(job.Frame, job.Grid, opts)
			if err != nil {
				return err
			}
			job.Stats = st
			return nil
		})
	}
	return g.Wait()
}
