package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gnemet/PromptDeck/internal/store"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <presentationId>",
	Short: "Prints the stored record of a generated presentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetBySlidesID(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no presentation %s", args[0])
		}
		if err != nil {
			return err
		}

		headColor.Printf("%s  (%s)\n", rec.GoogleSlidesID, rec.CreatedAt.Format("2006-01-02 15:04"))
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	AddCommand(showCmd)
}
