package cmd

import (
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull <path>...",
	Short: "Download files from the remote storage",
	Long: `Download the latest pushed version of files from the remote storage.

Files in the working tree are overwritten.
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		op, err := remoteOperation(model.EventPull)
		if err != nil {
			wrapFatalln("invalid remote", err)
			return
		}
		runBatch(op, args)
	},
}

func init() {
	addBranchFlag(pullCmd)
	addRemoteFlags(pullCmd)
	rootCmd.AddCommand(pullCmd)
}
