// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords loads search keywords from a CSV file.
package keywords

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads keywords from the CSV file at path. When column is non-empty it
// names the header column to read; otherwise the first column is used and a
// first row that looks like a header ("keyword"/"keywords") is skipped.
// Keywords are trimmed and deduplicated preserving order and original casing.
func Load(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keyword file %s: %w", path, err)
	}
	defer f.Close()

	return read(f, column)
}

func read(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing keyword CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("keyword file is empty")
	}

	col := 0
	start := 0
	if column != "" {
		col = -1
		for i, name := range records[0] {
			if strings.EqualFold(strings.TrimSpace(name), column) {
				col = i
				break
			}
		}
		if col < 0 {
			return nil, fmt.Errorf("keyword column %q not found in header %v", column, records[0])
		}
		start = 1
	} else if len(records[0]) > 0 {
		switch strings.ToLower(strings.TrimSpace(records[0][0])) {
		case "keyword", "keywords", "search_keyword", "term":
			start = 1
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, rec := range records[start:] {
		if col >= len(rec) {
			continue
		}
		kw := strings.TrimSpace(rec[col])
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("keyword file contains no keywords")
	}
	return out, nil
}
