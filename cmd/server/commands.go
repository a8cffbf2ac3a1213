package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"comicnest/internal/config"
	"comicnest/internal/db"
	"comicnest/internal/logger"
	"comicnest/internal/router"
	"comicnest/internal/services"
	"comicnest/internal/utils"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	configPath string
	reconcile  bool

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "comicnest",
		Short:         "Comic platform API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.Validate(loaded); err != nil {
				return err
			}
			cfg = loaded
			logger.Init(cfg.LogLevel, cfg.IsDevelopment())
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	migrateCmd.Flags().BoolVar(&reconcile, "reconcile", false, "recompute chapter and comic comment counters after migrating")

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	if reconcile {
		if _, err := services.NewCounterReconciler(gdb).ReconcileAll(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reconcile counters: %w", err)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(ctx, gdb)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("comicnest server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildDeps(ctx context.Context, gdb *gorm.DB) (router.Deps, error) {
	cache, err := utils.NewCache(cfg.CacheSize)
	if err != nil {
		return router.Deps{}, err
	}

	// 启动异步计数校正
	reconciler := services.NewCounterReconciler(gdb)
	reconciler.Start(ctx)

	users := services.NewUserService(gdb, cfg.HistoryLimit)
	return router.Deps{
		Config: cfg,
		DB:     gdb,
		Auth:   services.NewAuthService(gdb, cfg.JWTSecret, cfg.TokenTTL),
		Comments: services.NewCommentService(gdb, services.CommentOptions{
			MaxContentLength: cfg.MaxContentLength,
			TreeCacheTTL:     cfg.TreeCacheTTL,
			Cache:            cache,
			Reconciler:       reconciler,
		}),
		Comics: services.NewComicService(gdb, users),
		Users:  users,
	}, nil
}
