// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

func newCoordinator(p *Pipeline, w RowWriter, workers int, skip map[string]bool) *Coordinator {
	return NewCoordinator(p, w, workers, skip, zap.NewNop())
}

func TestCoordinatorRun(t *testing.T) {
	a, _, _, p := newFixture()
	a.hits["kw1"] = []string{"SRX1", "SRX2"}
	a.hits["kw2"] = []string{"SRX3"}
	w := &memWriter{}

	sum, err := newCoordinator(p, w, 2, nil).Run(context.Background(), []string{"kw1", "kw2"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Keywords != 2 || sum.Identifiers != 3 || sum.RowsWritten != 3 {
		t.Errorf("summary = %+v", sum)
	}
	if len(w.rows) != 3 {
		t.Errorf("rows = %d", len(w.rows))
	}
}

func TestCoordinatorPlaceholderForEmptyKeyword(t *testing.T) {
	a, _, _, p := newFixture()
	a.hits["nothing"] = nil
	w := &memWriter{}

	sum, err := newCoordinator(p, w, 1, nil).Run(context.Background(), []string{"nothing"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.RowsWritten != 1 || sum.Identifiers != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if len(w.rows) != 1 {
		t.Fatalf("rows = %d", len(w.rows))
	}
	row := w.rows[0]
	if row.OriginalKeyword != "nothing" || row.ExperimentID != types.Sentinel {
		t.Errorf("placeholder row = %+v", row)
	}
}

func TestCoordinatorDeduplicatesAcrossKeywords(t *testing.T) {
	a, _, _, p := newFixture()
	a.hits["kw1"] = []string{"SRX1"}
	a.hits["kw2"] = []string{"SRX1", "SRX2"}
	w := &memWriter{}

	sum, err := newCoordinator(p, w, 1, nil).Run(context.Background(), []string{"kw1", "kw2"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Identifiers != 2 || sum.Skipped != 1 || sum.RowsWritten != 2 {
		t.Errorf("summary = %+v", sum)
	}
	if len(a.fetches) != 2 {
		t.Errorf("fetches = %v, want one per unique id", a.fetches)
	}
}

func TestCoordinatorResumeSkip(t *testing.T) {
	a, _, _, p := newFixture()
	a.hits["kw"] = []string{"SRX1", "SRX2"}
	w := &memWriter{}
	skip := map[string]bool{"SRX1": true}

	sum, err := newCoordinator(p, w, 1, skip).Run(context.Background(), []string{"kw"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Skipped != 1 || sum.RowsWritten != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(w.rows) != 1 || w.rows[0].ExperimentID != "SRX2" {
		t.Errorf("rows = %+v", w.rows)
	}
}

func TestCoordinatorFailedExperimentDoesNotStopRun(t *testing.T) {
	a, _, _, p := newFixture()
	a.hits["kw"] = []string{"SRX1", "SRX2"}
	a.fetchErr["SRX1"] = errors.New("exhausted retries")
	w := &memWriter{}

	sum, err := newCoordinator(p, w, 1, nil).Run(context.Background(), []string{"kw"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.RowsWritten != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(w.rows) != 1 || w.rows[0].ExperimentID != "SRX2" {
		t.Errorf("rows = %+v", w.rows)
	}
}

func TestCoordinatorSearchFailureContinues(t *testing.T) {
	a, _, _, p := newFixture()
	a.searchErr["bad"] = errors.New("esearch 500")
	a.hits["good"] = []string{"SRX1"}
	w := &memWriter{}

	sum, err := newCoordinator(p, w, 1, nil).Run(context.Background(), []string{"bad", "good"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.SearchFailures != 1 || sum.RowsWritten != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestCoordinatorWriterFailureAbortsRun(t *testing.T) {
	a, _, _, p := newFixture()
	a.hits["kw"] = []string{"SRX1"}
	w := &memWriter{err: errors.New("disk full")}

	if _, err := newCoordinator(p, w, 1, nil).Run(context.Background(), []string{"kw"}); err == nil {
		t.Fatal("want writer error")
	}
}

func TestRunSingle(t *testing.T) {
	_, _, _, p := newFixture()
	w := &memWriter{}

	sum, err := newCoordinator(p, w, 1, nil).RunSingle(context.Background(), "debug", "SRX9")
	if err != nil {
		t.Fatalf("RunSingle: %v", err)
	}
	if sum.RowsWritten != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(w.rows) != 1 || w.rows[0].ExperimentID != "SRX9" {
		t.Errorf("rows = %+v", w.rows)
	}
}

func TestRunSingleAlreadyProcessed(t *testing.T) {
	_, _, _, p := newFixture()
	w := &memWriter{}
	skip := map[string]bool{"SRX9": true}

	sum, err := newCoordinator(p, w, 1, skip).RunSingle(context.Background(), "debug", "SRX9")
	if err != nil {
		t.Fatalf("RunSingle: %v", err)
	}
	if sum.Skipped != 1 || len(w.rows) != 0 {
		t.Errorf("summary = %+v rows = %d", sum, len(w.rows))
	}
}
