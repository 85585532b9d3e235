package maincmd

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/pipeline"
)

// BatchConfig is the shape of the YAML file --config loads, letting one
// invocation decompile many files against one action table without
// repeating flags on the command line (directory-wide/batch runs).
type BatchConfig struct {
	Actions     string   `yaml:"actions"`
	GameProfile string   `yaml:"game_profile"`
	Strict      bool     `yaml:"strict"`
	PruneDead   bool     `yaml:"prune_dead"`
	Files       []string `yaml:"files"`
}

func loadBatchConfig(path string) (*BatchConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg BatchConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveBatch merges --config, when given, with the command's own flags
// (a non-empty actions or game_profile from the config replaces the flag,
// strict and prune_dead are on if either the flag or the config sets them,
// and the config's files are appended to the command-line files) and
// returns the effective pipeline Config, action-table path, and file list
// to process.
func (c *Cmd) resolveBatch(args []string) (pipeline.Config, string, []string, error) {
	cfg := pipeline.Config{
		GameProfile:      c.GameProfile,
		StrictSignatures: c.Strict,
		PruneDead:        c.PruneDead,
	}
	actionsPath := c.ActionsPath
	files := args

	if c.ConfigPath == "" {
		return cfg, actionsPath, files, nil
	}

	bc, err := loadBatchConfig(c.ConfigPath)
	if err != nil {
		return cfg, actionsPath, files, err
	}
	if bc.Actions != "" {
		actionsPath = bc.Actions
	}
	if bc.GameProfile != "" {
		cfg.GameProfile = bc.GameProfile
	}
	cfg.StrictSignatures = cfg.StrictSignatures || bc.Strict
	cfg.PruneDead = cfg.PruneDead || bc.PruneDead
	if len(bc.Files) > 0 {
		files = append(append([]string{}, files...), bc.Files...)
	}
	return cfg, actionsPath, files, nil
}

func loadActionsFile(path string) (*actiontable.ActionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return actiontable.Load(f)
}
