// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"fmt"
	"strings"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

// maxXMLChars bounds the experiment XML included in a prompt. Local models
// have short effective contexts; the accession and metadata content sits in
// the first few kilobytes of SRA records.
const maxXMLChars = 20000

func truncateXML(doc string) string {
	if len(doc) <= maxXMLChars {
		return doc
	}
	return doc[:maxXMLChars] + "\n...[truncated]"
}

const accessionSystem = `You extract GEO accessions from SRA experiment XML.
Respond with a single JSON object of the form {"gse": "GSE12345", "gsm": "GSM12345"}.
Use "N/A" for an accession that is not present in the document. Output no other text.`

func accessionUser(xmlDoc string) string {
	return "Find the GEO Series (GSE...) and GEO Sample (GSM...) accessions in this SRA experiment XML:\n\n" +
		truncateXML(xmlDoc)
}

const accessionReprompt = `Your previous reply was not a parseable JSON object.
Reply with exactly one JSON object, no prose, no code fences:
{"gse": "<GSE accession or N/A>", "gsm": "<GSM accession or N/A>"}`

const synthesisSystem = `You are a biomedical data curator. From SRA experiment XML and GEO summary
facts you produce one JSON object with exactly these keys, all values strings:

experiment_title, species, sequencing_technique, sample_type, cell_line_name,
tissue_type, tissue_source_details, disease_description,
sample_treatment_protocol, treatment_label, clinical_sample_identifier,
library_source, instrument_model, is_chipseq_related_experiment,
chipseq_antibody_target, chipseq_control_description,
chipseq_igg_control_present, chipseq_input_control_present,
scientific_sample_summary

Rules:
- Use "N/A" when the document does not support a value. Never invent data.
- is_chipseq_related_experiment is "yes" or "no".
- treatment_label must be one of: WT, control, {GENE}_overexpressed,
  {GENE}_knockdown, {GENE}_knockout, {COMPOUND}_treated, or such terms joined
  with " + ". Use WT when no perturbation is described.
- scientific_sample_summary is 1-3 sentences describing the sample and assay.
Output the JSON object only.`

// SynthesisInput carries everything the synthesis prompt is built from.
type SynthesisInput struct {
	ExperimentID string
	Keyword      string
	XML          string
	Accessions   types.AccessionPair
	GEOSummary   []string
}

func synthesisUser(in SynthesisInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SRA experiment: %s (found via keyword %q)\n", in.ExperimentID, in.Keyword)
	gse, gsm := in.Accessions.Series, in.Accessions.Sample
	if gse == "" {
		gse = types.Sentinel
	}
	if gsm == "" {
		gsm = types.Sentinel
	}
	fmt.Fprintf(&b, "GEO accessions: series=%s sample=%s\n\n", gse, gsm)
	if len(in.GEOSummary) > 0 {
		b.WriteString("GEO record facts:\n")
		for _, line := range in.GEOSummary {
			b.WriteString("- " + line + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("SRA experiment XML:\n")
	b.WriteString(truncateXML(in.XML))
	return b.String()
}

// synthesisReprompt escalates formatting strictness on attempt n (1-based).
func synthesisReprompt(n int) string {
	if n == 1 {
		return `Your previous reply could not be parsed as JSON. Reply again with exactly
one JSON object containing all required keys and nothing else. No code fences,
no commentary, no trailing text.`
	}
	return `FINAL ATTEMPT. Output a single flat JSON object, starting with { and ending
with }. Every one of the required keys must be present with a string value.
Any key you cannot determine must be "N/A". Absolutely no text outside the JSON.`
}
