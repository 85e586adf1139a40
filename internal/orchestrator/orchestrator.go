// Package orchestrator fans a benchmark run out across recordings
// concurrently, bounding how many run at once and letting each own an
// independent pipeline and speaker registry while sharing model adapters
// read-only.
package orchestrator

import (
	"context"
	"log"
	"sync"

	"github.com/valfrom/diarize-bench/internal/benchmark"
	"github.com/valfrom/diarize-bench/internal/resultstore"
)

// Orchestrator runs a set of recordings through a shared Driver with a
// bounded number of recordings in flight at once.
type Orchestrator struct {
	Driver      *benchmark.Driver
	Concurrency int
}

// New constructs an Orchestrator. A concurrency of 0 or less defaults to 1
// (fully sequential).
func New(driver *benchmark.Driver, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Orchestrator{Driver: driver, Concurrency: concurrency}
}

// Run drives every recording through o.Driver, bounding in-flight work to
// o.Concurrency. Results are returned in the same order as recordings was
// given, regardless of completion order. A recording that errors is logged
// and omitted from the returned results rather than aborting the whole run.
func (o *Orchestrator) Run(ctx context.Context, recordings []benchmark.Recording) []resultstore.RecordingResult {
	results := make([]*resultstore.RecordingResult, len(recordings))

	sem := make(chan struct{}, o.Concurrency)
	var wg sync.WaitGroup

	for i, rec := range recordings {
		select {
		case <-ctx.Done():
			log.Printf("orchestrator: context cancelled, skipping remaining recordings from %q onward", rec.ID)
			wg.Wait()
			return collect(results)
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, rec benchmark.Recording) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := o.Driver.Run(ctx, rec)
			if err != nil {
				log.Printf("orchestrator: recording %q failed: %v", rec.ID, err)
				return
			}
			results[i] = &result
		}(i, rec)
	}

	wg.Wait()
	return collect(results)
}

func collect(results []*resultstore.RecordingResult) []resultstore.RecordingResult {
	out := make([]resultstore.RecordingResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
