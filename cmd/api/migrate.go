package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"burgerapi/pkg/config"
	"burgerapi/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Migrate applies the embedded SQL migrations for the configured store.

Only the sqlite and postgres drivers have a schema.

Example:
  BURGERS_STORE_DRIVER=sqlite BURGERS_STORE_DSN=burgers.db burgerapi migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := a.cfg.Store.Driver
			if driver != config.DriverSQLite && driver != config.DriverPostgres {
				return fmt.Errorf("store driver %q has no schema to migrate", driver)
			}

			ctx := cmd.Context()
			db, err := database.Open(ctx, driver, a.cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := database.Migrate(ctx, db, driver)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d (dirty=%t)\n", driver, res.Version, res.Dirty)
			return nil
		},
	}
}
