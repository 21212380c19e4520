package cmd

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [path]...",
	Short: "List tracked files",
	Long: `List the files tracked in the project, with their branch and author.

When paths are given, only the files at or below these paths are listed.
With --history, the events recorded for each file are shown too, along with commit messages.
`,
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s, err := openProject(ctx)
		if err != nil {
			wrapFatalln("failed to open project", err)
			return
		}
		defer s.close()

		tracked, err := s.project.ListTracked(ctx)
		if err != nil {
			wrapFatalln("failed to list tracked files", err)
			return
		}

		table := uitable.New()
		table.MaxColWidth = 80
		table.AddRow("PATH", "BRANCH", "AUTHOR")
		for _, t := range tracked {
			if !selected(t, args) {
				continue
			}
			table.AddRow(t.Path, color.YellowString(t.Branch), t.Author.String())
			if !yapFlags.show.history {
				continue
			}

			events, err := s.project.History(ctx, t.Path, t.Branch)
			if err != nil {
				wrapFatalln("failed to read history of "+t.Path, err)
				return
			}
			commits, err := s.project.Commits(ctx, t.Path, t.Branch)
			if err != nil {
				wrapFatalln("failed to read commits of "+t.Path, err)
				return
			}
			messages := make(map[int64]string, len(commits))
			for _, c := range commits {
				messages[c.To.Epoch] = c.Message
			}
			for _, e := range events {
				kind := e.Kind.String()
				if msg := messages[e.Timestamp]; e.Kind == model.EventCommit && msg != "" {
					kind += ": " + msg
				}
				table.AddRow("", color.HiBlackString(time.Unix(0, e.Timestamp).UTC().Format(time.RFC3339)), kind)
			}
		}
		infoLogger.Println(table)
	},
}

// selected tells if a tracked file matches the branch flag and lies at or below one of the given paths
func selected(t model.TrackedFile, paths []string) bool {
	if yapFlags.batch.branch != "" && t.Branch != yapFlags.batch.branch {
		return false
	}
	if len(paths) == 0 {
		return true
	}
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		if p == "." || t.Path == p || strings.HasPrefix(t.Path, p+"/") {
			return true
		}
	}
	return false
}

func init() {
	addBranchFlag(showCmd)
	addHistoryFlag(showCmd)
	rootCmd.AddCommand(showCmd)
}
