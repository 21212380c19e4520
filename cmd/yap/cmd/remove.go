package cmd

import (
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <path>...",
	Aliases: []string{"rm"},
	Short:   "Delete tracked files from the remote storage",
	Long: `Delete all objects pushed for tracked files from the remote storage.

Local snapshots and logbooks are left untouched, and files remain tracked.
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		op, err := remoteOperation(model.EventRemove)
		if err != nil {
			wrapFatalln("invalid remote", err)
			return
		}
		runBatch(op, args)
	},
}

func init() {
	addBranchFlag(removeCmd)
	addRemoteFlags(removeCmd)
	rootCmd.AddCommand(removeCmd)
}
