// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geo fetches linked Gene Expression Omnibus records in SOFT text
// form and reduces them to short fact summaries for prompting.
package geo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/internal/httputil"
	"github.com/pdiddy/sra-harvest/pkg/types"
)

// APIBase is the GEO accession viewer endpoint. Tests point it at a local
// server.
var APIBase = "https://www.ncbi.nlm.nih.gov/geo/query/acc.cgi"

// LinkedRecord is the reduced form of a GEO document: the accession it was
// fetched under and a bounded, ordered list of key-fact lines.
type LinkedRecord struct {
	Accession    string
	SummaryLines []string
}

// Fetcher retrieves GEO records best-effort: any failure yields a nil record,
// never an error that stops an experiment.
type Fetcher struct {
	cfg    types.GEOConfig
	client *http.Client
	log    *zap.Logger
}

func NewFetcher(cfg types.GEOConfig, log *zap.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Fetch resolves an accession pair to a linked record. The series accession
// takes precedence over the sample accession because it carries study-level
// context covering every sample. Both absent, or any fetch/parse failure,
// returns nil.
func (f *Fetcher) Fetch(ctx context.Context, pair types.AccessionPair) *LinkedRecord {
	acc := pair.Preferred()
	if acc == "" {
		return nil
	}

	soft, err := f.fetchSOFT(ctx, acc)
	if err != nil {
		f.log.Warn("geo fetch failed", zap.String("accession", acc), zap.Error(err))
		return nil
	}

	if f.cfg.SaveSoftDir != "" {
		if err := f.saveSOFT(acc, soft); err != nil {
			f.log.Warn("could not persist soft document",
				zap.String("accession", acc), zap.Error(err))
		}
	}

	lines := summarize(soft, f.cfg.MaxSummaryLines)
	if len(lines) == 0 {
		f.log.Warn("geo record had no usable summary lines", zap.String("accession", acc))
		return nil
	}
	return &LinkedRecord{Accession: acc, SummaryLines: lines}
}

func (f *Fetcher) fetchSOFT(ctx context.Context, acc string) (string, error) {
	q := url.Values{
		"acc":  {acc},
		"form": {"text"},
		"view": {"brief"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, APIBase+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 2)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("acc.cgi returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(body), nil
}

// summaryPrefixes selects the SOFT attribute lines worth showing the model,
// in priority order. Earlier prefixes survive truncation first.
var summaryPrefixes = []string{
	"!Series_title",
	"!Sample_title",
	"!Series_summary",
	"!Sample_organism",
	"!Series_organism",
	"!Sample_source_name",
	"!Sample_characteristics",
	"!Sample_treatment_protocol",
	"!Sample_extract_protocol",
	"!Sample_library_strategy",
	"!Series_type",
	"!Sample_series_id",
}

// summarize reduces a SOFT document to at most max key-fact lines, keeping
// attribute priority over document order.
func summarize(soft string, max int) []string {
	byPrefix := make(map[string][]string)
	sc := bufio.NewScanner(strings.NewReader(soft))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.HasPrefix(line, "!") {
			continue
		}
		for _, p := range summaryPrefixes {
			if strings.HasPrefix(line, p) {
				byPrefix[p] = append(byPrefix[p], cleanSOFTLine(line))
				break
			}
		}
	}

	var out []string
	for _, p := range summaryPrefixes {
		for _, line := range byPrefix[p] {
			if len(out) >= max {
				return out
			}
			out = append(out, line)
		}
	}
	return out
}

// cleanSOFTLine turns "!Sample_title = HeLa rep1" into "Sample_title: HeLa rep1".
func cleanSOFTLine(line string) string {
	line = strings.TrimPrefix(line, "!")
	if k, v, ok := strings.Cut(line, "="); ok {
		return strings.TrimSpace(k) + ": " + strings.TrimSpace(v)
	}
	return line
}

func (f *Fetcher) saveSOFT(acc, soft string) error {
	if err := os.MkdirAll(f.cfg.SaveSoftDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.cfg.SaveSoftDir, acc+".soft.txt"), []byte(soft), 0o644)
}
