package cmd

import (
	"github.com/oneconcern/yap/pkg/core"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit <path>...",
	Short: "Commit new versions of tracked files",
	Long: `Take a new snapshot of tracked files and compare it with the previous one.

The comparison technique defaults to the one configured for the project:
  - hash compares digests of the contents
  - similarity computes a similarity score for markdown and tabular files
  - smart merges the hash and similarity results
  - custom runs a script given with --script, passing it the current and previous snapshots
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		comparison, err := comparisonConfig()
		if err != nil {
			wrapFatalln("invalid comparison", err)
			return
		}
		runBatch(core.OperationConfig{
			Operation:  model.EventCommit,
			Comparison: comparison,
			Message:    yapFlags.batch.message,
		}, args)
	},
}

func init() {
	addBranchFlag(commitCmd)
	addMessageFlag(commitCmd)
	addTechniqueFlag(commitCmd)
	addScriptFlag(commitCmd)
	rootCmd.AddCommand(commitCmd)
}
