// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the configuration and record model shared by all
// pipeline stages.
package types

import "strings"

// Sentinel is the placeholder written for any field whose true value could
// not be determined. Every output row has the full column set; missing data
// is sentinel-filled, never omitted.
const Sentinel = "N/A"

// AccessionPair holds the GEO accessions extracted from an SRA experiment
// record. Either field may be empty; empty means absent.
type AccessionPair struct {
	// Series is the GEO Series accession ("GSE" + digits) for the study.
	Series string `json:"gse"`

	// Sample is the GEO Sample accession ("GSM" + digits) for this experiment.
	Sample string `json:"gsm"`
}

// IsEmpty reports whether both accessions are absent.
func (a AccessionPair) IsEmpty() bool {
	return a.Series == "" && a.Sample == ""
}

// Preferred returns the accession used to address the companion archive.
// The series accession wins when both are present: it yields study-level
// context covering every sample.
func (a AccessionPair) Preferred() string {
	if a.Series != "" {
		return a.Series
	}
	return a.Sample
}

// SynthesizedMetadata is the canonical structured-output unit produced by the
// metadata synthesis call. The schema is fixed: a field the model could not
// determine carries the sentinel, so every row has identical shape.
type SynthesizedMetadata struct {
	ExperimentTitle          string `json:"experiment_title"`
	Species                  string `json:"species"`
	SequencingTechnique      string `json:"sequencing_technique"`
	SampleType               string `json:"sample_type"`
	CellLineName             string `json:"cell_line_name"`
	TissueType               string `json:"tissue_type"`
	TissueSourceDetails      string `json:"tissue_source_details"`
	DiseaseDescription       string `json:"disease_description"`
	SampleTreatmentProtocol  string `json:"sample_treatment_protocol"`
	TreatmentLabel           string `json:"treatment_label"`
	ClinicalSampleIdentifier string `json:"clinical_sample_identifier"`
	LibrarySource            string `json:"library_source"`
	InstrumentModel          string `json:"instrument_model"`
	IsChIPSeqRelated         string `json:"is_chipseq_related_experiment"`
	ChIPSeqAntibodyTarget    string `json:"chipseq_antibody_target"`
	ChIPSeqControlDesc       string `json:"chipseq_control_description"`
	ChIPSeqIgGControl        string `json:"chipseq_igg_control_present"`
	ChIPSeqInputControl      string `json:"chipseq_input_control_present"`
	ScientificSampleSummary  string `json:"scientific_sample_summary"`
}

// UnknownMetadata returns a SynthesizedMetadata with every field set to the
// sentinel. The ChIP-seq flag defaults to "no": an undetermined experiment is
// reported as not ChIP-seq rather than unknown.
func UnknownMetadata() SynthesizedMetadata {
	return SynthesizedMetadata{
		ExperimentTitle:          Sentinel,
		Species:                  Sentinel,
		SequencingTechnique:      Sentinel,
		SampleType:               Sentinel,
		CellLineName:             Sentinel,
		TissueType:               Sentinel,
		TissueSourceDetails:      Sentinel,
		DiseaseDescription:       Sentinel,
		SampleTreatmentProtocol:  Sentinel,
		TreatmentLabel:           "WT",
		ClinicalSampleIdentifier: Sentinel,
		LibrarySource:            Sentinel,
		InstrumentModel:          Sentinel,
		IsChIPSeqRelated:         "no",
		ChIPSeqAntibodyTarget:    Sentinel,
		ChIPSeqControlDesc:       Sentinel,
		ChIPSeqIgGControl:        Sentinel,
		ChIPSeqInputControl:      Sentinel,
		ScientificSampleSummary:  Sentinel,
	}
}

// ResultRow is one output record: the originating keyword, the experiment
// identifier, the accession pair, and the synthesized metadata.
type ResultRow struct {
	OriginalKeyword string
	ExperimentID    string
	Accessions      AccessionPair
	Metadata        SynthesizedMetadata
}

// OutputColumns is the fixed column set and order of the result CSV. It never
// changes during a run; once the header is written it is never rewritten.
var OutputColumns = []string{
	"original_keyword", "sra_experiment_id", "gse_accession", "gsm_accession",
	"experiment_title", "species", "sequencing_technique", "sample_type",
	"cell_line_name", "tissue_type", "tissue_source_details",
	"disease_description", "sample_treatment_protocol", "treatment_label",
	"clinical_sample_identifier", "library_source", "instrument_model",
	"is_chipseq_related_experiment", "chipseq_antibody_target",
	"chipseq_control_description", "chipseq_igg_control_present",
	"chipseq_input_control_present", "scientific_sample_summary",
}

// PlaceholderRow returns the row emitted for a keyword that yielded no
// experiment identifiers, preserving full keyword coverage in the output.
func PlaceholderRow(keyword string) ResultRow {
	m := UnknownMetadata()
	m.ScientificSampleSummary = "No SRA experiment identifiers were found for this keyword."
	return ResultRow{
		OriginalKeyword: keyword,
		ExperimentID:    Sentinel,
		Metadata:        m,
	}
}

// Values returns the row's fields in OutputColumns order.
func (r ResultRow) Values() []string {
	return []string{
		orSentinel(r.OriginalKeyword),
		orSentinel(r.ExperimentID),
		orSentinel(r.Accessions.Series),
		orSentinel(r.Accessions.Sample),
		orSentinel(r.Metadata.ExperimentTitle),
		orSentinel(r.Metadata.Species),
		orSentinel(r.Metadata.SequencingTechnique),
		orSentinel(r.Metadata.SampleType),
		orSentinel(r.Metadata.CellLineName),
		orSentinel(r.Metadata.TissueType),
		orSentinel(r.Metadata.TissueSourceDetails),
		orSentinel(r.Metadata.DiseaseDescription),
		orSentinel(r.Metadata.SampleTreatmentProtocol),
		orSentinel(r.Metadata.TreatmentLabel),
		orSentinel(r.Metadata.ClinicalSampleIdentifier),
		orSentinel(r.Metadata.LibrarySource),
		orSentinel(r.Metadata.InstrumentModel),
		orSentinel(r.Metadata.IsChIPSeqRelated),
		orSentinel(r.Metadata.ChIPSeqAntibodyTarget),
		orSentinel(r.Metadata.ChIPSeqControlDesc),
		orSentinel(r.Metadata.ChIPSeqIgGControl),
		orSentinel(r.Metadata.ChIPSeqInputControl),
		orSentinel(r.Metadata.ScientificSampleSummary),
	}
}

// orSentinel maps empty and null-ish model answers to the sentinel.
func orSentinel(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "n/a", "na", "unknown", "not specified", "unclear":
		return Sentinel
	}
	return strings.TrimSpace(s)
}

// Clean normalizes every metadata field through the sentinel mapping.
func (m SynthesizedMetadata) Clean() SynthesizedMetadata {
	m.ExperimentTitle = orSentinel(m.ExperimentTitle)
	m.Species = orSentinel(m.Species)
	m.SequencingTechnique = orSentinel(m.SequencingTechnique)
	m.SampleType = orSentinel(m.SampleType)
	m.CellLineName = orSentinel(m.CellLineName)
	m.TissueType = orSentinel(m.TissueType)
	m.TissueSourceDetails = orSentinel(m.TissueSourceDetails)
	m.DiseaseDescription = orSentinel(m.DiseaseDescription)
	m.SampleTreatmentProtocol = orSentinel(m.SampleTreatmentProtocol)
	m.ClinicalSampleIdentifier = orSentinel(m.ClinicalSampleIdentifier)
	m.LibrarySource = orSentinel(m.LibrarySource)
	m.InstrumentModel = orSentinel(m.InstrumentModel)
	m.ChIPSeqAntibodyTarget = orSentinel(m.ChIPSeqAntibodyTarget)
	m.ChIPSeqControlDesc = orSentinel(m.ChIPSeqControlDesc)
	m.ChIPSeqIgGControl = orSentinel(m.ChIPSeqIgGControl)
	m.ChIPSeqInputControl = orSentinel(m.ChIPSeqInputControl)
	m.ScientificSampleSummary = orSentinel(m.ScientificSampleSummary)

	if strings.EqualFold(strings.TrimSpace(m.IsChIPSeqRelated), "yes") {
		m.IsChIPSeqRelated = "yes"
	} else {
		m.IsChIPSeqRelated = "no"
	}
	return m
}
