package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/samba/internal/config"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the plan journal database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied and latest schema versions",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.schemaVersion()
			},
		},
		&cobra.Command{
			Use:   "rollback VERSION",
			Short: "Revert schema migrations newer than VERSION",
			Long: "Revert schema migrations newer than VERSION, newest first. " +
				"Reverting to 0 drops the journal; any later command migrates it again.",
			Args: exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || target < 0 {
					return usageErrorf("invalid schema version %q", args[0])
				}
				return a.rollback(target)
			},
		},
	)
	return cmd
}

func (a *app) schemaVersion() error {
	db, err := a.cfg.OpenDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := config.PlanMigrator(db)
	current, err := migrator.GetCurrentVersion()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "schema version %d (latest %d)\n", current, migrator.LatestVersion())
	return err
}

func (a *app) rollback(target int64) error {
	db, err := a.cfg.OpenDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := config.PlanMigrator(db)
	if target > migrator.LatestVersion() {
		return usageErrorf("schema version %d is newer than the latest (%d)", target, migrator.LatestVersion())
	}
	if err := migrator.RollbackTo(target); err != nil {
		return err
	}
	current, err := migrator.GetCurrentVersion()
	if err != nil {
		return err
	}
	a.logger.Info("rolled back plan journal schema", "version", current)
	_, err = fmt.Fprintf(a.out, "schema version %d\n", current)
	return err
}
