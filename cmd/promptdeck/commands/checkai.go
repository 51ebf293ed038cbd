package commands

import (
	"fmt"
	"time"

	"github.com/gnemet/PromptDeck/internal/generation"
	"github.com/spf13/cobra"
)

var checkAICmd = &cobra.Command{
	Use:   "check-ai",
	Short: "Sends one request through the configured text model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		name, settings := cfg.AI.Active()
		headColor.Printf("Active provider: %s (driver: %s)\n", name, settings.Driver)
		fmt.Printf("Model: %s\n", settings.Model)
		if settings.Key == "" && settings.Driver != "mock" {
			errColor.Printf("API key is empty, set %s\n", settings.KeyEnv)
		} else if settings.Key != "" {
			fmt.Printf("API key: %s\n", maskKey(settings.Key))
		}

		gen, err := generation.New(ctx, cfg.AI, log)
		if err != nil {
			return err
		}
		defer gen.Close()

		start := time.Now()
		reply, err := gen.Ping(ctx)
		if err != nil {
			return fmt.Errorf("model round trip failed: %w", err)
		}
		okColor.Printf("Model answered in %v\n", time.Since(start).Round(time.Millisecond))
		dimColor.Println(reply)
		return nil
	},
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func init() {
	AddCommand(checkAICmd)
}
