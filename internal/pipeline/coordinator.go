// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

// RowWriter consumes finished rows. The coordinator is its only caller, from
// a single goroutine, so implementations need no locking.
type RowWriter interface {
	Write(row types.ResultRow) error
}

// Summary is the run report printed when a harvest finishes.
type Summary struct {
	Keywords       int
	Identifiers    int
	RowsWritten    int
	Skipped        int // already in the output or seen earlier this run
	Failed         int // experiments whose archive fetch was exhausted
	SearchFailures int
}

// Coordinator iterates keywords sequentially and fans experiment pipelines
// out on a bounded worker pool. Rows reach the writer through a
// single-consumer channel in completion order.
type Coordinator struct {
	pipeline *Pipeline
	writer   RowWriter
	workers  int
	skip     map[string]bool
	log      *zap.Logger
}

// NewCoordinator builds a Coordinator. skip holds experiment identifiers
// already present in the output; workers below 1 is treated as 1.
func NewCoordinator(p *Pipeline, w RowWriter, workers int, skip map[string]bool, log *zap.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{pipeline: p, writer: w, workers: workers, skip: skip, log: log}
}

// Run harvests every keyword. A keyword whose search fails is logged and
// passed over; a keyword with no hits produces one placeholder row. The
// returned error reflects writer failure or context cancellation, never an
// individual experiment.
func (c *Coordinator) Run(ctx context.Context, kws []string) (Summary, error) {
	var (
		mu   sync.Mutex
		sum  Summary
		seen = make(map[string]bool, len(c.skip))
	)
	for id := range c.skip {
		seen[id] = true
	}

	rows := make(chan types.ResultRow)
	writerDone := make(chan error, 1)
	go func() {
		for row := range rows {
			if err := c.writer.Write(row); err != nil {
				writerDone <- fmt.Errorf("writing row for %s: %w", row.ExperimentID, err)
				// Keep draining so producers never block on a dead writer.
				for range rows {
				}
				return
			}
			mu.Lock()
			sum.RowsWritten++
			mu.Unlock()
		}
		writerDone <- nil
	}()

	for _, kw := range kws {
		if ctx.Err() != nil {
			break
		}
		mu.Lock()
		sum.Keywords++
		mu.Unlock()

		ids, err := c.pipeline.archive.Search(ctx, kw)
		if err != nil {
			c.log.Error("keyword search failed", zap.String("keyword", kw), zap.Error(err))
			mu.Lock()
			sum.SearchFailures++
			mu.Unlock()
			continue
		}
		if len(ids) == 0 {
			c.log.Info("keyword produced no experiments", zap.String("keyword", kw))
			rows <- types.PlaceholderRow(kw)
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.workers)
		for _, id := range ids {
			mu.Lock()
			if seen[id] {
				sum.Skipped++
				mu.Unlock()
				c.log.Debug("skipping processed experiment",
					zap.String("keyword", kw), zap.String("srx", id))
				continue
			}
			seen[id] = true
			sum.Identifiers++
			mu.Unlock()

			id := id
			g.Go(func() error {
				row, err := c.pipeline.Run(gctx, kw, id)
				if err != nil {
					c.log.Error("experiment failed", zap.String("srx", id), zap.Error(err))
					mu.Lock()
					sum.Failed++
					mu.Unlock()
					return nil
				}
				select {
				case rows <- row:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		if err := g.Wait(); err != nil {
			c.log.Error("keyword aborted", zap.String("keyword", kw), zap.Error(err))
		}
	}

	close(rows)
	if err := <-writerDone; err != nil {
		return sum, err
	}
	return sum, ctx.Err()
}

// RunSingle processes exactly one experiment synchronously, bypassing the
// keyword loop. Used for debugging a specific identifier.
func (c *Coordinator) RunSingle(ctx context.Context, keyword, srxID string) (Summary, error) {
	var sum Summary
	if c.skip[srxID] {
		c.log.Info("experiment already in output", zap.String("srx", srxID))
		sum.Skipped = 1
		return sum, nil
	}
	sum.Identifiers = 1

	row, err := c.pipeline.Run(ctx, keyword, srxID)
	if err != nil {
		sum.Failed = 1
		return sum, err
	}
	if err := c.writer.Write(row); err != nil {
		return sum, fmt.Errorf("writing row for %s: %w", srxID, err)
	}
	sum.RowsWritten = 1
	return sum, nil
}
