// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

const sampleSOFT = `^SAMPLE = GSM200
!Sample_title = HeLa shRNA rep1
!Sample_organism_ch1 = Homo sapiens
!Sample_source_name_ch1 = HeLa cells
!Sample_characteristics_ch1 = cell line: HeLa
!Sample_characteristics_ch1 = treatment: DMSO
!Sample_treatment_protocol_ch1 = Cells were treated with DMSO for 24h.
!Sample_extract_protocol_ch1 = TRIzol extraction
!Sample_series_id = GSE100
!Sample_supplementary_file = ftp://example/file.gz
`

func newTestFetcher(t *testing.T, handler http.Handler, cfg types.GEOConfig) *Fetcher {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := APIBase
	APIBase = ts.URL
	t.Cleanup(func() { APIBase = old })

	cfg.Timeout = 5 * time.Second
	cfg.UserAgent = "sra-harvest-test"
	if cfg.MaxSummaryLines == 0 {
		cfg.MaxSummaryLines = 25
	}
	return NewFetcher(cfg, zap.NewNop())
}

func TestFetchSeriesPrecedence(t *testing.T) {
	var gotAcc atomic.Value
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAcc.Store(r.URL.Query().Get("acc"))
		fmt.Fprint(w, sampleSOFT)
	})
	f := newTestFetcher(t, handler, types.GEOConfig{})

	rec := f.Fetch(context.Background(), types.AccessionPair{Series: "GSE100", Sample: "GSM200"})
	if rec == nil {
		t.Fatal("want record, got nil")
	}
	if gotAcc.Load() != "GSE100" {
		t.Errorf("fetched accession = %v, want GSE100", gotAcc.Load())
	}
	if rec.Accession != "GSE100" {
		t.Errorf("record accession = %q", rec.Accession)
	}
}

func TestFetchBothAbsentNoNetworkCall(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network call")
	})
	f := newTestFetcher(t, handler, types.GEOConfig{})

	if rec := f.Fetch(context.Background(), types.AccessionPair{}); rec != nil {
		t.Errorf("want nil, got %+v", rec)
	}
}

func TestFetchFailureReturnsNil(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	f := newTestFetcher(t, handler, types.GEOConfig{})

	if rec := f.Fetch(context.Background(), types.AccessionPair{Sample: "GSM999"}); rec != nil {
		t.Errorf("want nil on fetch failure, got %+v", rec)
	}
}

func TestFetchSavesSOFT(t *testing.T) {
	dir := t.TempDir()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleSOFT)
	})
	f := newTestFetcher(t, handler, types.GEOConfig{SaveSoftDir: dir})

	if rec := f.Fetch(context.Background(), types.AccessionPair{Sample: "GSM200"}); rec == nil {
		t.Fatal("want record")
	}
	data, err := os.ReadFile(filepath.Join(dir, "GSM200.soft.txt"))
	if err != nil {
		t.Fatalf("persisted soft: %v", err)
	}
	if string(data) != sampleSOFT {
		t.Error("persisted soft differs from response")
	}
}

func TestSummarize(t *testing.T) {
	lines := summarize(sampleSOFT, 25)
	if len(lines) == 0 {
		t.Fatal("no summary lines")
	}
	// Title has top priority.
	if lines[0] != "Sample_title: HeLa shRNA rep1" {
		t.Errorf("first line = %q", lines[0])
	}
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"Sample_organism_ch1: Homo sapiens",
		"Sample_characteristics_ch1: treatment: DMSO",
		"Sample_treatment_protocol_ch1: Cells were treated with DMSO for 24h.",
		"Sample_series_id: GSE100",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("summary missing %q:\n%s", want, joined)
		}
	}
	// Unlisted attributes are dropped.
	if strings.Contains(joined, "supplementary_file") {
		t.Error("summary contains unlisted attribute")
	}
}

func TestSummarizeBounded(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "!Sample_characteristics_ch1 = tag%d: value\n", i)
	}
	lines := summarize(b.String(), 10)
	if len(lines) != 10 {
		t.Errorf("len = %d, want 10", len(lines))
	}
}
