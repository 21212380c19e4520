package cmd

import (
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push <path>...",
	Short: "Upload snapshots of tracked files to the remote storage",
	Long: `Upload snapshots of tracked files to the remote storage.

The latest snapshot of a file is stored under its path. Depending on the push strategy,
older snapshots are stored as well, under <path>@<branch>/<epoch>:
  - last uploads the latest snapshot only
  - all uploads every snapshot
  - smart uploads the snapshots not pushed yet which changed since their previous one
`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		op, err := remoteOperation(model.EventPush)
		if err != nil {
			wrapFatalln("invalid remote", err)
			return
		}
		runBatch(op, args)
	},
}

func init() {
	addBranchFlag(pushCmd)
	addStrategyFlag(pushCmd)
	addRemoteFlags(pushCmd)
	rootCmd.AddCommand(pushCmd)
}
