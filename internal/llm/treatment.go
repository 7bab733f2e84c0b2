// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"regexp"
	"strings"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

// labelTerm accepts one term of the treatment vocabulary: WT, control, or a
// gene/compound name suffixed with its perturbation kind.
var labelTerm = regexp.MustCompile(
	`^(WT|control|[A-Za-z0-9][A-Za-z0-9.-]*_(overexpressed|knockdown|knockout|treated))$`)

// normalizeTreatment enforces the closed treatment-label vocabulary. A
// conforming label (possibly several terms joined with "+") is kept with
// canonical " + " spacing. A non-conforming label is coerced to WT and the
// raw text is preserved in the treatment-protocol field so no information is
// lost.
func normalizeTreatment(m types.SynthesizedMetadata) types.SynthesizedMetadata {
	label := strings.TrimSpace(m.TreatmentLabel)
	if label == "" || label == types.Sentinel {
		m.TreatmentLabel = "WT"
		return m
	}

	terms := strings.Split(label, "+")
	for i, term := range terms {
		terms[i] = strings.TrimSpace(term)
	}
	conforming := true
	for _, term := range terms {
		if !labelTerm.MatchString(term) {
			conforming = false
			break
		}
	}
	if conforming {
		m.TreatmentLabel = strings.Join(terms, " + ")
		return m
	}

	if m.SampleTreatmentProtocol == types.Sentinel || m.SampleTreatmentProtocol == "" {
		m.SampleTreatmentProtocol = "reported treatment: " + label
	} else {
		m.SampleTreatmentProtocol += " [reported treatment: " + label + "]"
	}
	m.TreatmentLabel = "WT"
	return m
}
