package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ramsey-B/meridian/pkg/linkage"
	"github.com/Ramsey-B/meridian/pkg/models"
)

// pageRecord pairs a matcher Outcome with the PRIMARY unit it was computed
// for, letting the page coordinator build a LinkageResult without
// re-reading the unit. ok is false for units the pool never got to run
// (the page was cancelled mid-fan-out). errored is true when the
// per-record deadline (spec.md §6 PerRecordDeadlineMs) was exceeded before
// Match returned, spec.md §4.6 step 3's "record that raises during matching".
type pageRecord struct {
	unit    models.Unit
	outcome linkage.Outcome
	ok      bool
	errored bool
}

// runPage fans a page of PRIMARY units out across a bounded worker pool
// (spec.md §4.6's default WorkersPerPage=4), each worker calling
// matcher.Match under a per-record deadline, and collects results back in
// page order for a single coordinator to flush. Grounded on
// ivy/pkg/kafka/consumer.go's goroutine + context.CancelFunc +
// sync.WaitGroup cancellation idiom, generalized here from one consume
// loop to a bounded fan-out/fan-in pool over a fixed page of work.
func runPage(ctx context.Context, units []models.Unit, matcher *linkage.Matcher, workers int, perRecordDeadline time.Duration) []pageRecord {
	if workers < 1 {
		workers = 1
	}
	results := make([]pageRecord, len(units))

	type job struct {
		index int
		unit  models.Unit
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				recordCtx := ctx
				var cancel context.CancelFunc
				if perRecordDeadline > 0 {
					recordCtx, cancel = context.WithTimeout(ctx, perRecordDeadline)
				}
				outcome := matcher.Match(recordCtx, j.unit)
				errored := errors.Is(recordCtx.Err(), context.DeadlineExceeded)
				if cancel != nil {
					cancel()
				}
				results[j.index] = pageRecord{unit: j.unit, outcome: outcome, ok: true, errored: errored}
			}
		}()
	}

feed:
	for i, u := range units {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- job{index: i, unit: u}:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
