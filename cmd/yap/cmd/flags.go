// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

// flagsT holds all command line flags.
//
// Flags default to zero values: any blank flag falls back to the project configuration.
type flagsT struct {
	root struct {
		project     string
		logLevel    string
		concurrency int
		metricsFile string
		cpuProf     bool
	}
	batch struct {
		branch  string
		message string
	}
	compare struct {
		technique string
		script    string
	}
	remote struct {
		storage  string
		strategy string
		bucket   string
		root     string
		compress bool
	}
	init struct {
		force bool
	}
	show struct {
		history bool
	}
}

var yapFlags = flagsT{}

func addProjectFlag(cmd *cobra.Command) string {
	project := "project"
	cmd.PersistentFlags().StringVarP(&yapFlags.root.project, project, "C", "",
		"The root directory of the project. Defaults to the current directory")
	return project
}

func addLogLevelFlag(cmd *cobra.Command) string {
	logLevel := "loglevel"
	cmd.PersistentFlags().StringVar(&yapFlags.root.logLevel, logLevel, "",
		"The logging level: none, debug, info, warn or error. Overrides log_level from the config")
	return logLevel
}

func addConcurrencyFlag(cmd *cobra.Command) string {
	concurrency := "concurrency"
	cmd.PersistentFlags().IntVar(&yapFlags.root.concurrency, concurrency, 0,
		"The number of files processed concurrently. A negative value removes the limit. Overrides concurrency from the config")
	return concurrency
}

func addMetricsFileFlag(cmd *cobra.Command) string {
	metricsFile := "metrics-file"
	cmd.PersistentFlags().StringVar(&yapFlags.root.metricsFile, metricsFile, "",
		"Write batch metrics to this file, in the prometheus text format")
	return metricsFile
}

func addBranchFlag(cmd *cobra.Command) string {
	branch := "branch"
	cmd.Flags().StringVarP(&yapFlags.batch.branch, branch, "b", "",
		"The branch to operate on. Defaults to the current git branch")
	return branch
}

func addMessageFlag(cmd *cobra.Command) string {
	message := "message"
	cmd.Flags().StringVarP(&yapFlags.batch.message, message, "m", "", "The message describing the commit")
	return message
}

func addTechniqueFlag(cmd *cobra.Command) string {
	technique := "technique"
	cmd.Flags().StringVar(&yapFlags.compare.technique, technique, "",
		"The comparison technique: hash, similarity, custom or smart. Overrides comparison.technique from the config")
	return technique
}

func addScriptFlag(cmd *cobra.Command) string {
	script := "script"
	cmd.Flags().StringVar(&yapFlags.compare.script, script, "",
		"The comparison script, required by the custom technique")
	return script
}

func addStorageFlag(cmd *cobra.Command) string {
	storage := "storage"
	cmd.Flags().StringVar(&yapFlags.remote.storage, storage, "",
		"The remote storage: local, badger, s3, gcs or minio. Overrides remote.storage from the config")
	return storage
}

func addStrategyFlag(cmd *cobra.Command) string {
	strategy := "strategy"
	cmd.Flags().StringVar(&yapFlags.remote.strategy, strategy, "",
		"The push strategy: all, last or smart. Overrides remote.strategy from the config")
	return strategy
}

func addBucketFlag(cmd *cobra.Command) string {
	bucket := "bucket"
	cmd.Flags().StringVar(&yapFlags.remote.bucket, bucket, "", "The bucket of a cloud remote storage")
	return bucket
}

func addRemoteRootFlag(cmd *cobra.Command) string {
	root := "remote-root"
	cmd.Flags().StringVar(&yapFlags.remote.root, root, "",
		"The directory of a local or badger remote storage, relative to the project root")
	return root
}

func addCompressFlag(cmd *cobra.Command) string {
	compress := "compress"
	cmd.Flags().BoolVar(&yapFlags.remote.compress, compress, false, "Compress objects stored on the remote")
	return compress
}

func addRemoteFlags(cmd *cobra.Command) {
	addStorageFlag(cmd)
	addBucketFlag(cmd)
	addRemoteRootFlag(cmd)
	addCompressFlag(cmd)
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVar(&yapFlags.init.force, force, false, "Overwrite an existing config file")
	return force
}

func addHistoryFlag(cmd *cobra.Command) string {
	history := "history"
	cmd.Flags().BoolVar(&yapFlags.show.history, history, false, "Show the history of events of each tracked file")
	return history
}

func addCPUProfFlag(cmd *cobra.Command) string {
	cpuProf := "cpuprof"
	cmd.PersistentFlags().BoolVar(&yapFlags.root.cpuProf, cpuProf, false, "Write a CPU profile to cpu.prof in the current directory")
	return cpuProf
}
