package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oneconcern/yap/pkg/core"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a project",
	Long: `Initialize a project in the current directory, or in the directory given by --project.

This writes a default configuration to .yap/config.toml and creates the master logbook.
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		pth := filepath.Join(projectRoot(), filepath.FromSlash(model.ConfigFile))
		if _, err := os.Stat(pth); err == nil && !yapFlags.init.force {
			wrapFatalln(fmt.Sprintf("config file %s already exists, use --force to overwrite it", pth), nil)
			return
		}

		if err := writeConfig(pth, core.DefaultConfig()); err != nil {
			wrapFatalln("failed to write config", err)
			return
		}

		s, err := openProject(context.Background())
		if err != nil {
			wrapFatalln("failed to initialize project", err)
			return
		}
		defer s.close()

		infoLogger.Printf("initialized project in %s", s.project.Root())
	},
}

func writeConfig(pth string, cfg core.Config) error {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(pth), 0700); err != nil {
		return err
	}
	return os.WriteFile(pth, b, 0600)
}

func init() {
	addForceFlag(initCmd)
	rootCmd.AddCommand(initCmd)
}
