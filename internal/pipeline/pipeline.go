// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one experiment from archive fetch to a finished
// result row, and coordinates the per-keyword worker pool.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/internal/geo"
	"github.com/pdiddy/sra-harvest/internal/llm"
	"github.com/pdiddy/sra-harvest/pkg/types"
)

// ArchiveClient is the archive surface the pipeline needs.
type ArchiveClient interface {
	Search(ctx context.Context, keyword string) ([]string, error)
	FetchExperimentXML(ctx context.Context, srxID string) (string, error)
}

// LinkedFetcher resolves an accession pair to a linked record, best effort.
type LinkedFetcher interface {
	Fetch(ctx context.Context, pair types.AccessionPair) *geo.LinkedRecord
}

// MetadataGateway is the model surface the pipeline needs.
type MetadataGateway interface {
	ExtractAccessions(ctx context.Context, srxID, xmlDoc string) types.AccessionPair
	Synthesize(ctx context.Context, in llm.SynthesisInput) types.SynthesizedMetadata
}

// stage names the steps of the per-experiment state machine, in order:
// fetch_xml -> extract_accessions -> fetch_linked -> synthesize -> row_ready.
// Only fetch_xml can fail an experiment; every later stage degrades to
// sentinels and still moves forward.
type stage string

const (
	stageFetchXML    stage = "fetch_xml"
	stageExtract     stage = "extract_accessions"
	stageFetchLinked stage = "fetch_linked"
	stageSynthesize  stage = "synthesize"
	stageRowReady    stage = "row_ready"
)

// Pipeline runs the per-experiment state machine.
type Pipeline struct {
	archive ArchiveClient
	linked  LinkedFetcher
	gateway MetadataGateway
	log     *zap.Logger
}

func New(archive ArchiveClient, linked LinkedFetcher, gateway MetadataGateway, log *zap.Logger) *Pipeline {
	return &Pipeline{archive: archive, linked: linked, gateway: gateway, log: log}
}

// Run processes one experiment identifier. The only error path is an
// exhausted archive fetch; everything downstream fills sentinels instead of
// failing, so a returned row is always complete.
func (p *Pipeline) Run(ctx context.Context, keyword, srxID string) (types.ResultRow, error) {
	log := p.log.With(zap.String("keyword", keyword), zap.String("srx", srxID))

	log.Debug("stage", zap.String("stage", string(stageFetchXML)))
	xmlDoc, err := p.archive.FetchExperimentXML(ctx, srxID)
	if err != nil {
		return types.ResultRow{}, fmt.Errorf("fetching experiment %s: %w", srxID, err)
	}

	log.Debug("stage", zap.String("stage", string(stageExtract)))
	pair := p.gateway.ExtractAccessions(ctx, srxID, xmlDoc)

	log.Debug("stage", zap.String("stage", string(stageFetchLinked)))
	var summary []string
	if rec := p.linked.Fetch(ctx, pair); rec != nil {
		summary = rec.SummaryLines
	}

	log.Debug("stage", zap.String("stage", string(stageSynthesize)))
	meta := p.gateway.Synthesize(ctx, llm.SynthesisInput{
		ExperimentID: srxID,
		Keyword:      keyword,
		XML:          xmlDoc,
		Accessions:   pair,
		GEOSummary:   summary,
	})

	log.Info("experiment processed",
		zap.String("stage", string(stageRowReady)),
		zap.String("gse", pair.Series),
		zap.String("gsm", pair.Sample))
	return types.ResultRow{
		OriginalKeyword: keyword,
		ExperimentID:    srxID,
		Accessions:      pair,
		Metadata:        meta,
	}, nil
}
