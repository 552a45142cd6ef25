package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/scribe/pkg/cli/config"
	controller "github.com/m-mizutani/scribe/pkg/controller/http"
	"github.com/m-mizutani/scribe/pkg/infra/githubapp"
	"github.com/m-mizutani/scribe/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		githubCfg config.GitHub
		geminiCfg config.Gemini
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting scribe server",
				slog.String("addr", serverCfg.Addr),
				slog.Int64("app_id", githubCfg.AppID),
			)

			// All configuration is validated here; the server refuses to
			// start with missing secrets or an unreadable key.
			privateKey, err := githubCfg.ReadPrivateKey()
			if err != nil {
				return err
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return err
			}

			var ghOpts []githubapp.Option
			if githubCfg.BaseURL != "" {
				ghOpts = append(ghOpts, githubapp.WithBaseURL(githubCfg.BaseURL))
			}
			githubApp, err := githubapp.New(githubCfg.AppID, privateKey, ghOpts...)
			if err != nil {
				return err
			}

			// Create use case
			webhookUC, err := usecase.NewIssueSummarizer(llmClient, githubApp)
			if err != nil {
				return err
			}

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
