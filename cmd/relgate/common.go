package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/relgate/relgate/internal/config"
	"github.com/relgate/relgate/internal/db"
	"github.com/relgate/relgate/internal/policy"
	"github.com/relgate/relgate/internal/signal"
	"github.com/relgate/relgate/internal/verdict"
)

func loadConfig(repoRoot string) (config.Config, error) {
	cfg := config.Default()
	path := viper.GetString("config")
	if path == "" {
		path = filepath.Join(".relgate", "config.json")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := config.ValidateSettings(viper.AllSettings()); err != nil {
		return config.Config{}, err
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func openDB(repoRoot string, cfg config.Config) (*sql.DB, func(), error) {
	dbPath := resolvePath(repoRoot, cfg.DBPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, func() {}, fmt.Errorf("create state dir: %w", err)
	}
	storeDB, err := db.Open(dbPath)
	if err != nil {
		return nil, func() {}, err
	}
	return storeDB, func() { _ = storeDB.Close() }, nil
}

func resolvePath(repoRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(repoRoot, path)
}

// gateFlags are the per-run inputs shared by evaluate and run.
type gateFlags struct {
	signalsPath string
	policyPath  string
	repo        string
	headSHA     string
	runID       string
	prNumber    int
	learning    bool
}

// buildVerdict runs the evaluation pipeline: load policy, parse signals,
// match rules, and assemble the verdict document.
func buildVerdict(repoRoot string, cfg config.Config, f gateFlags) (verdict.Document, policy.Document, error) {
	policyPath := f.policyPath
	if policyPath == "" {
		policyPath = cfg.PolicyPath
	}
	pol, err := policy.Load(resolvePath(repoRoot, policyPath))
	if err != nil {
		return verdict.Document{}, policy.Document{}, err
	}

	raw, err := os.ReadFile(resolvePath(repoRoot, f.signalsPath))
	if err != nil {
		return verdict.Document{}, policy.Document{}, fmt.Errorf("read signals: %w", err)
	}
	in, err := signal.ParseInputs(raw)
	if err != nil {
		return verdict.Document{}, policy.Document{}, err
	}

	learningMode := f.learning || cfg.LearningMode || pol.Defaults.LearningMode
	res, err := policy.Evaluate(pol, in.Vector(), learningMode)
	if err != nil {
		return verdict.Document{}, policy.Document{}, err
	}

	runID := f.runID
	if runID == "" {
		runID = "run-" + uuid.NewString()
	}
	meta := verdict.RunMeta{
		RunID:     runID,
		Repo:      f.repo,
		PRNumber:  f.prNumber,
		HeadSHA:   f.headSHA,
		Timestamp: time.Now(),
	}
	doc, err := verdict.Build(meta, in, toSnapshot(res, learningMode))
	if err != nil {
		return verdict.Document{}, policy.Document{}, err
	}
	return doc, pol, nil
}

func toSnapshot(res policy.Result, learningMode bool) verdict.PolicySnapshot {
	matched := make([]verdict.PolicyMatch, 0, len(res.Matched))
	for _, m := range res.Matched {
		matched = append(matched, verdict.PolicyMatch{
			RuleID:   m.RuleID,
			Severity: string(m.Severity),
			Action:   string(m.Action),
			Reason:   m.Reason,
		})
	}
	return verdict.PolicySnapshot{
		LearningMode:          learningMode,
		Matched:               matched,
		HighestSeverity:       string(res.HighestSeverity),
		ProposedAction:        string(res.ProposedAction),
		ProposedFactoryAction: string(res.ProposedFactoryAction),
	}
}
