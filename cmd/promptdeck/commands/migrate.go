package commands

import (
	"fmt"

	"github.com/gnemet/PromptDeck/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the presentations table in Postgres",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		if d := cfg.Database.Driver; d != "" && d != "postgres" {
			return fmt.Errorf("migrate only applies to postgres, configured driver is %q", d)
		}
		pg, err := store.OpenPostgres(ctx, cfg.Database.GetConnectStr())
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		okColor.Println("Schema is up to date.")
		return nil
	},
}

func init() {
	AddCommand(migrateCmd)
}
