// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

var (
	gseShape = regexp.MustCompile(`^GSE\d+$`)
	gsmShape = regexp.MustCompile(`^GSM\d+$`)

	// Fallback scan patterns, most specific first. The structured forms
	// (external-id elements, alias attributes) beat a bare prefix match
	// that could pick up stray mentions in free-text fields.
	gsePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)namespace="GEO"[^>]*>\s*(GSE\d+)\s*<`),
		regexp.MustCompile(`(?i)alias="(GSE\d+)"`),
		regexp.MustCompile(`\b(GSE\d+)\b`),
	}
	gsmPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)namespace="GEO"[^>]*>\s*(GSM\d+)\s*<`),
		regexp.MustCompile(`(?i)alias="(GSM\d+)"`),
		regexp.MustCompile(`\b(GSM\d+)\b`),
	}
)

// ExtractAccessions finds the GEO accessions referenced by an SRA experiment
// document. It asks the model first, reprompts once on malformed output, and
// then falls back to a deterministic regex scan of the raw XML. The fallback
// cannot fail; the weakest outcome is a pair with both accessions absent.
func (g *Gateway) ExtractAccessions(ctx context.Context, srxID, xmlDoc string) types.AccessionPair {
	user := accessionUser(xmlDoc)
	// The reprompt restates the document: exchanges are stateless, so the
	// stricter instruction alone would give the model nothing to extract
	// from.
	for attempt, prompt := range []string{user, accessionReprompt + "\n\n" + user} {
		reply, err := g.backend.Complete(ctx, accessionSystem, prompt)
		if err != nil {
			g.log.Warn("accession extraction call failed",
				zap.String("srx", srxID), zap.Int("attempt", attempt+1), zap.Error(err))
			break
		}
		if pair, ok := parseAccessionReply(reply); ok {
			g.log.Debug("accessions extracted by model",
				zap.String("srx", srxID), zap.String("gse", pair.Series), zap.String("gsm", pair.Sample))
			return pair
		}
		g.log.Warn("accession reply malformed",
			zap.String("srx", srxID), zap.Int("attempt", attempt+1))
	}

	pair := scanAccessions(xmlDoc)
	g.log.Info("accessions from regex fallback",
		zap.String("srx", srxID), zap.String("gse", pair.Series), zap.String("gsm", pair.Sample))
	return pair
}

func parseAccessionReply(reply string) (types.AccessionPair, bool) {
	raw, ok := scrapeJSON(reply)
	if !ok {
		return types.AccessionPair{}, false
	}
	var out struct {
		GSE string `json:"gse"`
		GSM string `json:"gsm"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return types.AccessionPair{}, false
	}

	pair := types.AccessionPair{
		Series: normalizeAccession(out.GSE, gseShape),
		Sample: normalizeAccession(out.GSM, gsmShape),
	}
	// A reply that names neither accession in valid shape is treated as
	// malformed when it claimed to have found something.
	if pair.IsEmpty() && (claimsValue(out.GSE) || claimsValue(out.GSM)) {
		return types.AccessionPair{}, false
	}
	return pair, true
}

func claimsValue(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, types.Sentinel) && !strings.EqualFold(s, "none")
}

func normalizeAccession(s string, shape *regexp.Regexp) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if shape.MatchString(s) {
		return s
	}
	return ""
}

// scanAccessions is the deterministic extractor over the raw document text.
func scanAccessions(xmlDoc string) types.AccessionPair {
	return types.AccessionPair{
		Series: firstMatch(xmlDoc, gsePatterns),
		Sample: firstMatch(xmlDoc, gsmPatterns),
	}
}

func firstMatch(doc string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(doc); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	return ""
}

// scrapeJSON pulls a JSON object out of model text: fenced block first,
// then the outermost brace span.
func scrapeJSON(s string) (string, bool) {
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
