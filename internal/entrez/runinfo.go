// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// excludedStrategies lists library strategies that never produce usable
// transcriptomic or epigenomic samples; their runinfo rows are dropped.
var excludedStrategies = map[string]bool{
	"WGA":                 true,
	"CLONE":               true,
	"POOLCLONE":           true,
	"CLONEEND":            true,
	"FINISHING":           true,
	"VALIDATION":          true,
	"Synthetic-Long-Read": true,
}

// parseRunInfo extracts experiment accessions from an efetch runinfo CSV.
// Rows with an excluded library strategy are skipped, accessions must carry
// an SRX/ERX/DRX prefix, and duplicates are collapsed preserving order.
func parseRunInfo(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	cr := csv.NewReader(bytes.NewReader(trimmed))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading runinfo CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	expCol, stratCol := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case "Experiment":
			expCol = i
		case "LibraryStrategy":
			stratCol = i
		}
	}
	if expCol < 0 {
		return nil, fmt.Errorf("runinfo CSV has no Experiment column (header: %v)", records[0])
	}

	var ids []string
	seen := make(map[string]bool)
	for _, rec := range records[1:] {
		if expCol >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[expCol])
		if !hasExperimentPrefix(id) {
			continue
		}
		if stratCol >= 0 && stratCol < len(rec) {
			if excludedStrategies[strings.TrimSpace(rec[stratCol])] {
				continue
			}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func hasExperimentPrefix(id string) bool {
	for _, p := range []string{"SRX", "ERX", "DRX"} {
		if strings.HasPrefix(id, p) && len(id) > len(p) {
			return true
		}
	}
	return false
}
