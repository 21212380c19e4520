// Copyright © 2018 One Concern

package cmd

import (
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"

	"github.com/oneconcern/yap/pkg/core"
	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix     = "yap"
	envConfigFile = "YAP_CONFIG"
)

// config is the project configuration, resolved from the config file, the environment and defaults
var config *core.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "yap",
	Short: "Version control for the data files living next to your code",
	Long: `yap keeps the history of data files (markdown, csv, parquet, anything) alongside a git repository.

Files are tracked per branch. Every commit stores a full snapshot of a file and a comparison with
its previous snapshot. Snapshots may be pushed to and pulled from some remote storage: a local
directory, an embedded key-value store, S3, GCS or any S3-compatible service.

All local state lives in the .yap directory at the root of the project.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if yapFlags.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				wrapFatalln("failed to create cpu profile", err)
				return
			}
			_ = pprof.StartCPUProfile(f)
		}
	},
	// PersistentPostRun is not called when Run panics
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if yapFlags.root.cpuProf {
			pprof.StopCPUProfile()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logFatalln(err)
	}
}

func init() {
	log.SetFlags(0)

	addProjectFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addConcurrencyFlag(rootCmd)
	addMetricsFileFlag(rootCmd)
	addCPUProfFlag(rootCmd)

	cobra.OnInitialize(initConfig)
}

// envKeys may be set from the environment without appearing in any config file
var envKeys = []string{
	"author.name",
	"author.email",
	"comparison.script",
	"remote.bucket",
	"remote.root",
	"remote.prefix",
	"remote.endpoint",
	"remote.region",
	"remote.credentials",
	"remote.username",
	"remote.password_env",
	"remote.compress",
	"remote.insecure",
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.Reset()
	if cfgFile := os.Getenv(envConfigFile); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigFile(filepath.Join(projectRoot(), filepath.FromSlash(model.ConfigFile)))
	}
	viper.SetConfigType("toml")

	setDefaults(core.DefaultConfig())
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			wrapFatalln("failed to read config file", err)
			return
		}
	}

	var err error
	config, err = newConfig()
	if err != nil {
		wrapFatalln("failed to decode config", err)
		return
	}
}

func setDefaults(cfg core.Config) {
	viper.SetDefault("history_dir", cfg.HistoryDir)
	viper.SetDefault("logbooks_dir", cfg.LogbooksDir)
	viper.SetDefault("master_logbook", cfg.MasterLogbook)
	viper.SetDefault("concurrency", cfg.Concurrency)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("comparison.technique", string(cfg.Comparison.Technique))
	viper.SetDefault("remote.storage", string(cfg.Remote.Storage))
	viper.SetDefault("remote.strategy", string(cfg.Remote.Strategy))
}

func newConfig() (*core.Config, error) {
	var cfg core.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func projectRoot() string {
	if yapFlags.root.project == "" {
		return "."
	}
	return yapFlags.root.project
}
