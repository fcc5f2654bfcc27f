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

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"siteops/internal/config"
	"siteops/internal/handler"
	"siteops/internal/report"
	"siteops/internal/repository"
	"siteops/internal/server"
	"siteops/internal/service"
	"siteops/pkg/logger"
)

type env struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	e := &env{}

	app := &cli.App{
		Name:  "siteops",
		Usage: "Optimize site images and smoke-test deployments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if lvl := c.String("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}

			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			e.cfg = cfg
			e.log = log
			return nil
		},
		After: func(c *cli.Context) error {
			if e.log != nil {
				_ = e.log.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "optimize",
				Usage:     "Downscale and recompress JPEG files in place",
				ArgsUsage: "[paths...]",
				Action:    e.runOptimize,
			},
			{
				Name:  "verify",
				Usage: "Check that a deployed site serves the expected bundle",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Site URL (defaults to VERIFY_URL)",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit with status 1 when verification fails",
					},
				},
				Action: e.runVerify,
			},
			{
				Name:   "backups",
				Usage:  "List originals saved to the backup bucket",
				Action: e.runBackups,
			},
			{
				Name:      "restore",
				Usage:     "Restore originals saved by an optimize run",
				ArgsUsage: "<run-id>",
				Action:    e.runRestore,
			},
			{
				Name:  "serve",
				Usage: "Expose optimize and verify over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP server port (defaults to SERVER_PORT)",
					},
				},
				Action: e.runServe,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		if e.log != nil {
			e.log.Fatal("Application error", zap.Error(err))
		}
		os.Stderr.WriteString("CRITICAL: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func (e *env) imageService(ctx context.Context) (service.ImageService, error) {
	var backups repository.S3Repository
	if e.cfg.S3.Enabled {
		repo, err := repository.NewS3Repository(ctx, &e.cfg.S3, e.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 repository: %w", err)
		}
		backups = repo
	}
	return service.NewImageService(backups, &e.cfg.Optimize, e.log), nil
}

func (e *env) runOptimize(c *cli.Context) error {
	images, err := e.imageService(c.Context)
	if err != nil {
		return err
	}

	run, err := images.Optimize(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}

	report.WriteOptimizeRun(os.Stdout, run)
	return nil
}

func (e *env) runVerify(c *cli.Context) error {
	verifier := service.NewVerifyService(nil, &e.cfg.Verify, e.log)

	r := verifier.Verify(c.Context, c.String("url"))
	report.WriteVerification(os.Stdout, r, e.cfg.Verify.Guide)

	if c.Bool("strict") && !r.Passed {
		return cli.Exit("", 1)
	}
	return nil
}

func (e *env) runBackups(c *cli.Context) error {
	images, err := e.imageService(c.Context)
	if err != nil {
		return err
	}

	keys, err := images.ListBackups(c.Context)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(os.Stdout, k)
	}
	return nil
}

func (e *env) runRestore(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("restore takes exactly one run id")
	}

	images, err := e.imageService(c.Context)
	if err != nil {
		return err
	}

	paths, err := images.Restore(c.Context, c.Args().First())
	for _, p := range paths {
		fmt.Fprintf(os.Stdout, "Restored %s\n", p)
	}
	return err
}

func (e *env) runServe(c *cli.Context) error {
	if port := c.String("port"); port != "" {
		e.cfg.Server.Port = port
	}

	images, err := e.imageService(c.Context)
	if err != nil {
		return err
	}
	verifier := service.NewVerifyService(nil, &e.cfg.Verify, e.log)

	srv := server.New(&e.cfg.Server, handler.NewHandler(images, verifier, e.log), e.log)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-c.Context.Done():
		e.log.Info("Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	e.log.Info("Server exited")
	return nil
}
