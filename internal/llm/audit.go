// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// audit writes the raw synthesis outcome for one experiment. The file is
// written whether the row itself is ever emitted; a failed audit write is
// logged and otherwise ignored.
func (g *Gateway) audit(srxID, content string) {
	if g.auditDir == "" {
		return
	}
	if err := os.MkdirAll(g.auditDir, 0o755); err != nil {
		g.log.Warn("could not create audit directory", zap.String("dir", g.auditDir), zap.Error(err))
		return
	}
	path := filepath.Join(g.auditDir, srxID+"_synthesis.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		g.log.Warn("could not write audit record", zap.String("path", path), zap.Error(err))
	}
}
