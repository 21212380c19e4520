package cmd

import (
	"github.com/oneconcern/yap/pkg/core"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Track files",
	Long: `Start tracking files on a branch, and take their first snapshot.

Directories are added recursively. Files already tracked on the branch are skipped.
Paths are relative to the project root.
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBatch(core.OperationConfig{Operation: model.EventAdd}, args)
	},
}

func init() {
	addBranchFlag(addCmd)
	rootCmd.AddCommand(addCmd)
}
