package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/apicurio-sync/internal/engine"
	"github.com/bianoble/apicurio-sync/internal/lock"
	"github.com/bianoble/apicurio-sync/internal/plan"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the planned entries and whether their files exist",
	Long: `Merges the configuration and the lockfile into a plan and shows, for every
entry, the pinned version and the state of its local file: present, missing,
or pending (not locked yet, or locked to another artifact or version). Locked
paths the configuration no longer lists are left out, as the next update
prunes them. Does not contact the registry or write the lockfile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(s)
		if err != nil {
			return err
		}
		lf, err := lock.LoadOrEmpty(lock.PathFor(cfg.Path))
		if err != nil {
			return err
		}

		p := plan.Build(plan.Target{}, cfg, engine.Prune(cfg, lf))
		statuses := (&engine.StatusEngine{Workdir: s.Workdir}).Status(p)
		return newPrinter(cmd, s).Print(newStatusView(statuses))
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
