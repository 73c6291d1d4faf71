package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/apicurio-sync/internal/engine"
	"github.com/bianoble/apicurio-sync/internal/logging"
	"github.com/bianoble/apicurio-sync/internal/plan"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull pinned artifacts and push local files",
	Long: `Brings the lockfile up to date with the configuration (resolving only new or
changed pull entries), then writes every pull path from the registry and
uploads every push path. Entries are applied in path order, pulls first, and
the first failure stops the run; files already written stay written.

Use 'update' to re-resolve entries that are already locked.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(s)
	if err != nil {
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
	rec := newRecorder(s)
	defer writeMetrics(s, rec)

	ctx := cmd.Context()
	updated, err := (&engine.UpdateEngine{Provider: provider, Metrics: rec}).LoadOrCreate(ctx, cfg)
	if err != nil {
		return err
	}

	p := plan.Build(plan.Target{Context: rc.Name, URL: rc.URL}, cfg, updated.Lockfile)
	eng := &engine.SyncEngine{Provider: provider, Cache: c, Workdir: s.Workdir, Metrics: rec}
	result, syncErr := eng.Sync(ctx, p)

	if err := newPrinter(cmd, s).Print(newSyncView(result)); err != nil {
		return err
	}
	if syncErr != nil {
		return syncErr
	}

	logging.FromContext(ctx).Info().
		Int("pulled", len(result.Pulled)).
		Int("pushed", len(result.Pushed)).
		Str("context", rc.Name).
		Msg("sync complete")
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
