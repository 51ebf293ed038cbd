package commands

import (
	"errors"
	"fmt"

	"github.com/gnemet/PromptDeck/internal/generation"
	"github.com/spf13/cobra"
)

var (
	themesPrompt string
	themesCount  int
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Generates slide themes for a prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if themesPrompt == "" {
			return errors.New("--prompt is required")
		}
		ctx, cancel, cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		gen, err := generation.New(ctx, cfg.AI, log)
		if err != nil {
			return err
		}
		defer gen.Close()

		themes, err := gen.GenerateThemes(ctx, themesPrompt, themesCount)
		if err != nil {
			return err
		}
		for i, t := range themes {
			headColor.Printf("%2d. ", i+1)
			fmt.Println(t)
		}
		return nil
	},
}

func init() {
	themesCmd.Flags().StringVarP(&themesPrompt, "prompt", "p", "", "Presentation prompt")
	themesCmd.Flags().IntVarP(&themesCount, "count", "n", 5, "Number of themes")
	AddCommand(themesCmd)
}
