// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package writer appends result rows to the output CSV.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

// CSVWriter appends rows to a single output file. The header is written
// exactly once, when the target is new or empty; appending to a non-empty
// file never rewrites it, which is what makes interrupted runs resumable.
// Each row is flushed as soon as it is written.
type CSVWriter struct {
	f  *os.File
	cw *csv.Writer
}

// Open opens path for appending, writing the header if the file is empty.
func Open(path string) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat output %s: %w", path, err)
	}

	w := &CSVWriter{f: f, cw: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := w.writeRecord(types.OutputColumns); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	return w, nil
}

// Write appends one row and flushes it to disk.
func (w *CSVWriter) Write(row types.ResultRow) error {
	return w.writeRecord(row.Values())
}

func (w *CSVWriter) writeRecord(rec []string) error {
	if err := w.cw.Write(rec); err != nil {
		return err
	}
	w.cw.Flush()
	return w.cw.Error()
}

func (w *CSVWriter) Close() error {
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// ProcessedIDs reads back an existing output file and returns the experiment
// identifiers already written, so a resumed run can skip them. A missing
// file means nothing is processed. Placeholder rows carry the sentinel and
// are not treated as processed identifiers.
func ProcessedIDs(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("opening output %s for resume: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	ids := make(map[string]bool)
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading output %s for resume: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 2 {
			continue
		}
		if id := rec[1]; id != "" && id != types.Sentinel {
			ids[id] = true
		}
	}
	return ids, nil
}
