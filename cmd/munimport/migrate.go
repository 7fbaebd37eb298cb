package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpattn/munimport/internal/db"
)

func migrateCommand(cc *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.RunMigrations(cc.cfg.Database, cc.logger)
		},
	}

	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back the given number of migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}
			return db.RollbackMigrations(cc.cfg.Database, steps, cc.logger)
		},
	}

	cmd.AddCommand(up, down)
	return cmd
}
