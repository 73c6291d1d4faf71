package cmd

import (
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/bianoble/apicurio-sync/internal/config"
	"github.com/bianoble/apicurio-sync/internal/engine"
	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/lock"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the registry and local paths in use",
	Long: `Asks the selected registry to describe itself and shows the context, the
config, lockfile and context file paths, and the cache directory and size.
A missing config file is fine; its registry field is then not consulted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		cfg, err := config.Load(s.ConfigPath)
		if err != nil && !apierrors.Is(err, fs.ErrNotExist) {
			return err
		}
		provider, rc, err := newProvider(s, cfg)
		if err != nil {
			return err
		}
		c, err := newCache(s)
		if err != nil {
			return err
		}

		result, err := engine.Info(cmd.Context(), provider, c)
		if err != nil {
			return err
		}
		result.Context = rc.Name
		result.URL = rc.URL
		result.ConfigPath = s.ConfigPath
		result.LockfilePath = lock.PathFor(s.ConfigPath)
		result.ContextFile = s.ContextFile

		return newPrinter(cmd, s).Print(newInfoView(result))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
