package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/resistingdestiny/memedici/internal/agent/model"
	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

// SeedReport summarises a bulk import run.
type SeedReport struct {
	Agents  int      `json:"agents"`
	Studios int      `json:"studios"`
	Skipped []string `json:"skipped,omitempty"`
}

// seedDocument is the shape of a seed file: either a studio, an agent, or
// a bundle carrying both.
type seedDocument struct {
	Studio *model.Studio     `json:"studio,omitempty"`
	Agents []json.RawMessage `json:"agents,omitempty"`
}

// Seed imports every *.json file under dir. Studio documents are created
// before agents so studio references resolve during agent validation.
// Legacy agent documents are migrated on the way in. Files that fail to
// parse or validate are skipped and reported rather than aborting the run.
func (r *Registry) Seed(ctx context.Context, dir string) (SeedReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return SeedReport{}, err
	}

	var report SeedReport
	var agentDocs []json.RawMessage

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			report.Skipped = append(report.Skipped, e.Name())
			continue
		}

		var doc seedDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			report.Skipped = append(report.Skipped, e.Name())
			continue
		}

		if doc.Studio != nil {
			if _, err := r.CreateStudio(ctx, doc.Studio.ID, *doc.Studio); err != nil {
				logx.Warn().Err(err).Str("file", e.Name()).Msg("seed studio rejected")
				report.Skipped = append(report.Skipped, e.Name())
				continue
			}
			report.Studios++
		}
		if len(doc.Agents) > 0 {
			agentDocs = append(agentDocs, doc.Agents...)
			continue
		}
		if doc.Studio == nil {
			// Bare agent document.
			agentDocs = append(agentDocs, raw)
		}
	}

	for _, raw := range agentDocs {
		cfg, err := model.MigrateAgentDocument(raw)
		if err != nil || cfg.ID == "" {
			report.Skipped = append(report.Skipped, "agent document")
			continue
		}
		if _, err := r.CreateAgent(ctx, cfg.ID, cfg); err != nil {
			logx.Warn().Err(err).Str("agent_id", cfg.ID).Msg("seed agent rejected")
			report.Skipped = append(report.Skipped, cfg.ID)
			continue
		}
		report.Agents++
	}

	logx.Info().Int("agents", report.Agents).Int("studios", report.Studios).Int("skipped", len(report.Skipped)).Msg("seed import complete")
	return report, nil
}
