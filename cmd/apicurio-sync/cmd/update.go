package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/apicurio-sync/internal/engine"
	"github.com/bianoble/apicurio-sync/internal/logging"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-resolve every pull entry and rewrite the lockfile",
	Long: `Resolves every pull entry against the registry again, so unpinned entries
move to the latest version, and prunes entries no longer in the configuration.
The lockfile is only written when every entry resolves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(s)
		if err != nil {
			return err
		}
		provider, _, err := newProvider(s, cfg)
		if err != nil {
			return err
		}
		rec := newRecorder(s)
		defer writeMetrics(s, rec)

		ctx := cmd.Context()
		result, err := (&engine.UpdateEngine{Provider: provider, Metrics: rec}).Refresh(ctx, cfg)
		if err != nil {
			return err
		}

		logging.FromContext(ctx).Info().
			Str("lockfile", result.Path).
			Int("resolved", len(result.Resolved)).
			Int("pruned", len(result.Pruned)).
			Msg("lockfile updated")
		return newPrinter(cmd, s).Print(newUpdateView(result))
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
