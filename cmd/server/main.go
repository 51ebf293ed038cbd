package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnemet/PromptDeck/internal/api"
	"github.com/gnemet/PromptDeck/internal/assembly"
	"github.com/gnemet/PromptDeck/internal/config"
	"github.com/gnemet/PromptDeck/internal/editor"
	"github.com/gnemet/PromptDeck/internal/gdocs"
	"github.com/gnemet/PromptDeck/internal/generation"
	"github.com/gnemet/PromptDeck/internal/i18n"
	"github.com/gnemet/PromptDeck/internal/logging"
	"github.com/gnemet/PromptDeck/internal/store"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "promptdeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := gdocs.NewClient(ctx, cfg.Google, log.Named("gdocs"))
	if err != nil {
		return err
	}

	gen, err := generation.New(ctx, cfg.AI, log.Named("generation"))
	if err != nil {
		return err
	}
	defer gen.Close()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer st.Close()

	bundle, err := loadTranslations(ctx, cfg.I18n, log.Named("i18n"))
	if err != nil {
		return err
	}

	asm := assembly.New(provider, gen, st, assembly.Options{
		DestinationFolder: cfg.Google.Destination(),
		DefaultBudget:     cfg.Application.DefaultBudget,
		CleanupOnFailure:  cfg.Google.CleanupOnFailure,
	}, log.Named("assembly"))

	srv := api.New(api.Deps{
		Provider:  provider,
		Themes:    gen,
		Assembler: asm,
		Store:     st,
		Sessions:  editor.NewSessionManager(cfg.Session),
		Bundle:    bundle,
		Log:       log.Named("http"),
	}, api.Options{
		TemplatesFolder:  cfg.Google.TemplatesFolder,
		CacheTTL:         cfg.Application.CacheTTL,
		CacheSize:        cfg.Application.CacheSize,
		ThumbnailWorkers: cfg.Google.ThumbnailWorkers,
	})

	httpServer := &http.Server{
		Addr:              cfg.Application.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", httpServer.Addr), zap.String("version", cfg.Application.Version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// loadTranslations builds the message bundle and, when enabled, starts its
// directory watcher in the background. It returns without waiting on ctx.
func loadTranslations(ctx context.Context, cfg config.I18nConfig, log *zap.Logger) (*i18n.Bundle, error) {
	bundle, err := i18n.New(cfg.DefaultLang)
	if err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return bundle, nil
	}
	if err := bundle.LoadDir(cfg.Dir); err != nil {
		return nil, err
	}
	if cfg.Watch {
		if _, err := bundle.Watch(ctx, cfg.Dir, log); err != nil {
			log.Warn("translation watcher disabled", zap.Error(err))
		}
	}
	return bundle, nil
}
