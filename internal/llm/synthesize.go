// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

const maxSynthesisAttempts = 3

// retryBackoff is the wait before retrying a failed completion call.
// Tests override this to avoid real sleeps.
var retryBackoff = 2 * time.Second

// synthesisResult is the tagged outcome of one validation pass: either a
// schema-conforming metadata object or the raw text that failed to conform.
type synthesisResult struct {
	Valid bool
	Meta  types.SynthesizedMetadata
	Raw   string
}

// Synthesize produces the structured metadata for one experiment. The first
// malformed reply triggers up to two reprompts with stricter formatting
// instructions; when every attempt fails the result is the all-sentinel
// object. Whatever happened, the raw outcome is written to the audit
// directory under the experiment identifier. Synthesize never returns an
// error: a degraded model is a degraded row, not a stopped pipeline.
func (g *Gateway) Synthesize(ctx context.Context, in SynthesisInput) types.SynthesizedMetadata {
	user := synthesisUser(in)
	var lastRaw string

	for attempt := 0; attempt < maxSynthesisAttempts; attempt++ {
		// Each exchange is stateless, so a reprompt must restate the full
		// input; the stricter instruction alone would leave the model with
		// nothing to ground its answer in.
		prompt := user
		if attempt > 0 {
			prompt = synthesisReprompt(attempt) + "\n\n" + user
		}

		reply, err := g.backend.Complete(ctx, synthesisSystem, prompt)
		if err != nil {
			g.log.Warn("synthesis call failed",
				zap.String("srx", in.ExperimentID), zap.Int("attempt", attempt+1), zap.Error(err))
			if attempt == maxSynthesisAttempts-1 {
				g.audit(in.ExperimentID, errorRecord("completion failed: "+err.Error(), lastRaw))
				return types.UnknownMetadata()
			}
			select {
			case <-ctx.Done():
				g.audit(in.ExperimentID, errorRecord("cancelled: "+ctx.Err().Error(), lastRaw))
				return types.UnknownMetadata()
			case <-time.After(retryBackoff):
			}
			continue
		}
		lastRaw = reply

		res := validateSynthesis(reply)
		if res.Valid {
			g.audit(in.ExperimentID, res.Raw)
			return normalizeTreatment(res.Meta.Clean())
		}
		g.log.Warn("synthesis reply malformed",
			zap.String("srx", in.ExperimentID), zap.Int("attempt", attempt+1))
	}

	g.log.Warn("synthesis exhausted attempts, filling sentinels",
		zap.String("srx", in.ExperimentID))
	g.audit(in.ExperimentID, errorRecord("all attempts produced malformed output", lastRaw))
	return types.UnknownMetadata()
}

// validateSynthesis scrapes and decodes a model reply into the fixed schema.
// Unknown keys are ignored; a reply is valid when it is a JSON object that
// decodes into the schema's string fields.
func validateSynthesis(reply string) synthesisResult {
	raw, ok := scrapeJSON(reply)
	if !ok {
		return synthesisResult{Raw: reply}
	}
	var meta types.SynthesizedMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return synthesisResult{Raw: reply}
	}
	return synthesisResult{Valid: true, Meta: meta, Raw: raw}
}

func errorRecord(msg, lastRaw string) string {
	rec, _ := json.Marshal(map[string]string{
		"error":         msg,
		"last_response": lastRaw,
	})
	return string(rec)
}
