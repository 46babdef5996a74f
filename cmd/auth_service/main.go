package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/homedesigner/auth_service/internal/auth"
	"github.com/homedesigner/auth_service/internal/config"
	"github.com/homedesigner/auth_service/internal/handler"
	"github.com/homedesigner/auth_service/internal/metrics"
	"github.com/homedesigner/auth_service/internal/service"
	"github.com/homedesigner/auth_service/internal/storage"
	"github.com/homedesigner/auth_service/internal/users"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	//PARSE ARGS
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	pflag.Parse()

	cfg := config.MustLoadConfig(configPath)

	//INIT LOGGER
	lgr := setupLogger(cfg.Env)
	lgr.Info("started auth service", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage.Driver))

	if err := run(cfg, lgr); err != nil {
		lgr.Error("auth service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, lgr *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := auth.NewJWTCodec(auth.CodecConfig{
		Secret:     []byte(cfg.Tokens.Secret),
		Issuer:     cfg.Tokens.Issuer,
		AccessTTL:  cfg.Tokens.AccessTTL(),
		RefreshTTL: cfg.Tokens.RefreshTTL(),
	})
	if err != nil {
		return err
	}

	//INIT DB
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			lgr.Error("failed to close session store", slog.Any("error", err))
		}
	}()

	var dir users.Directory
	if cfg.Users.URL != "" {
		dir = users.NewClient(cfg.Users.URL, cfg.Users.Timeout)
	} else {
		lgr.Warn("user-management url is not set, using in-memory users")
		dir = users.NewLocalDirectory()
	}

	m := metrics.New()
	svc := service.NewService(codec, store, dir, m, lgr)
	h := handler.NewHandler(svc, cfg, m, lgr)

	//INIT SERVER
	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      h.InitRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lgr.Info("listening", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
