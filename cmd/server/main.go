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

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"weeklybloom/internal/clock"
	"weeklybloom/internal/config"
	"weeklybloom/internal/serverapp"
	"weeklybloom/pkg/logutils"
)

type flags struct {
	Addr       string
	ConfigPath string
	DataDir    string
	LogLevel   string
	LogFile    string
}

func main() {
	ctx := context.Background()

	var (
		f         flags
		log       zerolog.Logger
		logCloser func()
	)

	app := &cli.Command{
		Name:  "weeklybloom",
		Usage: "Weekly habit and task tracking server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (overrides config)",
				Sources:     cli.EnvVars("WEEKLYBLOOM_ADDR"),
				Destination: &f.Addr,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("WEEKLYBLOOM_CONFIG"),
				Value:       "weeklybloom.yml",
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("WEEKLYBLOOM_DATA_DIR"),
				Value:       "data",
				Destination: &f.DataDir,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("WEEKLYBLOOM_LOG_LEVEL"),
				Value:       "info",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("WEEKLYBLOOM_LOG_FILE"),
				Destination: &f.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(f.LogLevel, f.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log = logger
			logCloser = closer
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(f.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if f.Addr != "" {
				cfg.Server.Addr = f.Addr
			}

			srvApp, err := serverapp.New(serverapp.Options{
				Config:  cfg,
				DataDir: f.DataDir,
				Logger:  log,
				Clock:   clock.RealClock{},
			})
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			go srvApp.RunRollover(ctx)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srvApp.Handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				log.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
			}
			return nil
		},
	}

	err := app.Run(ctx, os.Args)
	if logCloser != nil {
		logCloser()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
