package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blueplan/notes-go/internal/notes/api"
	"github.com/blueplan/notes-go/internal/notes/config"
	contextx "github.com/blueplan/notes-go/internal/notes/context"
	"github.com/blueplan/notes-go/internal/notes/events"
	logx "github.com/blueplan/notes-go/internal/notes/log"
	"github.com/blueplan/notes-go/internal/notes/notes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "notes",
		Short:        "In-memory notes API",
		SilenceUsage: true,
		RunE:         runServe,
		Version:      version,
	}
	rootCmd.PersistentFlags().String("config-dir", envOr("CONFIG_DIR", "config"), "directory holding app_config.yaml")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return rootCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextx.WithRequestID(ctx, "notes-boot")

	// gin 的调试输出也走统一日志
	gin.DefaultWriter = logger.Writer(logx.LevelDebug)
	gin.DefaultErrorWriter = logger.Writer(logx.LevelError)
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := events.NewHub(cfg.Events.Buffer)
	store := notes.NewInmem(notes.WithObserver(hub.Observe))
	router := api.NewRouter(cfg, logger, store, hub)
	srv := api.NewServer(router, logger)

	addr, err := srv.Listen(cfg.API.Addr())
	if err != nil {
		return err
	}
	logger.Info(ctx, "notes service started",
		logx.KV("addr", "http://"+addr.String()),
		logx.KV("version", cfg.App.Version),
		logx.KV("environment", cfg.App.Environment))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "shutting down notes service")

		// websocket 连接已被劫持，需由 hub 关闭
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.API.ShutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "notes service stopped with error", logx.KV("error", err))
		return err
	}
	logger.Info(ctx, "notes service stopped")
	return nil
}

func newLogger(cfg config.LogConfig, stderr io.Writer) (*logx.Logger, error) {
	lc := &logx.LogConfig{Level: cfg.Level, Format: cfg.Format}
	if cfg.File == "" {
		return logx.New(stderr, lc), nil
	}
	logger, err := logx.NewWithFileRotation(lc, cfg.File)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
