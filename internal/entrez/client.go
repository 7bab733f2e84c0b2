// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entrez searches the NCBI Sequence Read Archive and fetches
// experiment records through the E-utilities HTTP API.
package entrez

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sra-harvest/internal/httputil"
	"github.com/pdiddy/sra-harvest/pkg/types"
)

// APIBase is the E-utilities endpoint root. Tests point it at a local server.
var APIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client talks to the E-utilities esearch and efetch endpoints. A per-run
// cache keeps experiment XML so repeated identifiers are fetched once.
type Client struct {
	cfg    types.EntrezConfig
	client *http.Client
	log    *zap.Logger

	cacheMu sync.Mutex
	cache   map[string]string

	paceMu   sync.Mutex
	lastCall time.Time
}

// NewClient builds a Client from cfg. The API key, when present, is attached
// to every request for the higher NCBI rate limit.
func NewClient(cfg types.EntrezConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
		cache:  make(map[string]string),
	}
}

// esearchResult is the subset of the esearch XML response we consume.
type esearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDs     []string `xml:"IdList>Id"`
}

// Search resolves a keyword to SRA experiment identifiers (SRX/ERX/DRX).
// It runs esearch to collect UIDs, then efetch in runinfo form to map UIDs
// to experiment accessions, excluding low-value library strategies. The
// result is deduplicated preserving archive order. A keyword with no hits
// returns an empty slice and no error.
func (c *Client) Search(ctx context.Context, keyword string) ([]string, error) {
	q := url.Values{
		"db":     {"sra"},
		"term":   {keyword + "[All Fields]"},
		"retmax": {fmt.Sprint(c.cfg.MaxSearchResults)},
	}
	body, err := c.get(ctx, "esearch.fcgi", q)
	if err != nil {
		return nil, fmt.Errorf("esearch %q: %w", keyword, err)
	}

	var res esearchResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding esearch response for %q: %w", keyword, err)
	}
	c.log.Debug("esearch complete",
		zap.String("keyword", keyword),
		zap.Int("count", res.Count),
		zap.Int("uids", len(res.IDs)))
	if res.Count > len(res.IDs) {
		c.log.Warn("keyword search truncated",
			zap.String("keyword", keyword),
			zap.Int("total_hits", res.Count),
			zap.Int("requested", c.cfg.MaxSearchResults))
	}
	if len(res.IDs) == 0 {
		return nil, nil
	}

	q = url.Values{
		"db":      {"sra"},
		"id":      {strings.Join(res.IDs, ",")},
		"rettype": {"runinfo"},
		"retmode": {"text"},
	}
	body, err = c.get(ctx, "efetch.fcgi", q)
	if err != nil {
		return nil, fmt.Errorf("efetch runinfo for %q: %w", keyword, err)
	}

	ids, err := parseRunInfo(body)
	if err != nil {
		return nil, fmt.Errorf("parsing runinfo for %q: %w", keyword, err)
	}
	c.log.Info("keyword resolved",
		zap.String("keyword", keyword),
		zap.Int("experiments", len(ids)))
	return ids, nil
}

// FetchExperimentXML returns the full SRA experiment XML for an identifier.
// Identical identifiers within one run are served from the in-memory cache.
func (c *Client) FetchExperimentXML(ctx context.Context, srxID string) (string, error) {
	c.cacheMu.Lock()
	if doc, ok := c.cache[srxID]; ok {
		c.cacheMu.Unlock()
		return doc, nil
	}
	c.cacheMu.Unlock()

	q := url.Values{
		"db":      {"sra"},
		"id":      {srxID},
		"rettype": {"xml"},
		"retmode": {"xml"},
	}
	body, err := c.get(ctx, "efetch.fcgi", q)
	if err != nil {
		return "", fmt.Errorf("efetch xml for %s: %w", srxID, err)
	}
	doc := string(body)
	if strings.TrimSpace(doc) == "" {
		return "", fmt.Errorf("efetch xml for %s: empty response", srxID)
	}

	c.cacheMu.Lock()
	c.cache[srxID] = doc
	c.cacheMu.Unlock()

	if c.cfg.SaveXMLDir != "" {
		if err := c.saveXML(srxID, doc); err != nil {
			c.log.Warn("could not persist experiment xml",
				zap.String("srx", srxID), zap.Error(err))
		}
	}
	return doc, nil
}

// get issues one E-utilities request with pacing, the API key, and retries.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	u := APIBase + "/" + endpoint + "?" + q.Encode()

	c.pace()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// pace enforces the configured delay between consecutive archive calls.
func (c *Client) pace() {
	c.paceMu.Lock()
	defer c.paceMu.Unlock()
	if !c.lastCall.IsZero() {
		if wait := c.cfg.RequestDelay - time.Since(c.lastCall); wait > 0 {
			time.Sleep(wait)
		}
	}
	c.lastCall = time.Now()
}

// xmlRecord is the metadata sidecar written next to a persisted document.
type xmlRecord struct {
	ExperimentID string    `yaml:"experiment_id"`
	File         string    `yaml:"file"`
	Bytes        int       `yaml:"bytes"`
	FetchedAt    time.Time `yaml:"fetched_at"`
}

func (c *Client) saveXML(srxID, doc string) error {
	if err := os.MkdirAll(c.cfg.SaveXMLDir, 0o755); err != nil {
		return err
	}
	name := srxID + ".xml"
	if err := os.WriteFile(filepath.Join(c.cfg.SaveXMLDir, name), []byte(doc), 0o644); err != nil {
		return err
	}
	meta, err := yaml.Marshal(xmlRecord{
		ExperimentID: srxID,
		File:         name,
		Bytes:        len(doc),
		FetchedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.cfg.SaveXMLDir, srxID+".yaml"), meta, 0o644)
}
