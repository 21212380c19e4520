package core

import (
	"github.com/oneconcern/yap/pkg/core/status"
	"github.com/oneconcern/yap/pkg/dlogger"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/remote"
)

// DefaultConcurrency is the default number of files processed concurrently in a batch
const DefaultConcurrency = 16

// ComparisonConfig selects how snapshots are compared on commit
type ComparisonConfig struct {
	Technique model.Technique `json:"technique" mapstructure:"technique" toml:"technique"`

	// Script is required by the custom technique
	Script string `json:"script,omitempty" mapstructure:"script" toml:"script,omitempty"`
}

// Config of a project, as found in .yap/config.toml.
//
// Directories are relative to the project root.
type Config struct {
	HistoryDir    string           `json:"history_dir" mapstructure:"history_dir" toml:"history_dir"`
	LogbooksDir   string           `json:"logbooks_dir" mapstructure:"logbooks_dir" toml:"logbooks_dir"`
	MasterLogbook string           `json:"master_logbook" mapstructure:"master_logbook" toml:"master_logbook"`
	Concurrency   int              `json:"concurrency" mapstructure:"concurrency" toml:"concurrency"`
	LogLevel      string           `json:"log_level" mapstructure:"log_level" toml:"log_level"`
	Author        model.Author     `json:"author" mapstructure:"author" toml:"author"`
	Comparison    ComparisonConfig `json:"comparison" mapstructure:"comparison" toml:"comparison"`
	Remote        remote.Config    `json:"remote" mapstructure:"remote" toml:"remote"`
}

// DefaultConfig of a new project
func DefaultConfig() Config {
	return Config{
		HistoryDir:    model.DefaultHistoryDir,
		LogbooksDir:   model.DefaultLogbooksDir,
		MasterLogbook: model.DefaultMasterLogbook,
		Concurrency:   DefaultConcurrency,
		LogLevel:      dlogger.LogLevelInfo,
		Comparison:    ComparisonConfig{Technique: model.TechniqueSmart},
		Remote: remote.Config{
			Storage:  model.StorageLocal,
			Strategy: model.PushSmart,
		},
	}
}

// Validate the configuration, filling in defaults for blank settings
func (c *Config) Validate() error {
	defaults := DefaultConfig()
	if c.HistoryDir == "" {
		c.HistoryDir = defaults.HistoryDir
	}
	if c.LogbooksDir == "" {
		c.LogbooksDir = defaults.LogbooksDir
	}
	if c.MasterLogbook == "" {
		c.MasterLogbook = defaults.MasterLogbook
	}
	for _, dir := range []string{c.HistoryDir, c.LogbooksDir, c.MasterLogbook} {
		if !model.IsStateFile(dir) {
			return status.ErrConfiguration.WrapMessage("%q must be located under %s", dir, model.StateDir)
		}
	}

	technique, err := model.ParseTechnique(string(c.Comparison.Technique))
	if err != nil {
		return status.ErrConfiguration.Wrap(err)
	}
	c.Comparison.Technique = technique

	if err := c.Remote.Validate(); err != nil {
		return status.ErrConfiguration.Wrap(err)
	}
	return nil
}
