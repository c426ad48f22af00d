package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"riddleme-service/internal/app"
	"riddleme-service/internal/config"
	"riddleme-service/internal/infra/memory"
	"riddleme-service/internal/infra/openai"
	pgstore "riddleme-service/internal/infra/postgres"
	redisstore "riddleme-service/internal/infra/redis"
	"riddleme-service/internal/infra/sqlite"
	transport "riddleme-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the riddle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level, cfg.Log.Pretty)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	feed := app.NewFeed()
	riddles := app.NewRiddleService(store, generator, feed, app.RiddleOptions{
		ExcludeWindow: cfg.Riddles.ExcludeWindow,
		Theme:         cfg.Provider.Theme,
		Difficulty:    cfg.Provider.Difficulty,
	})
	scoring := app.NewScoringService(riddles, feed, app.ScoringOptions{Enforce: cfg.EnforceScoring()})
	handler := transport.NewServer(riddles, scoring, feed, transport.Options{
		AdminSecret:      cfg.Admin.JWTSecret,
		LeaderboardLimit: cfg.Leaderboard.Limit,
		RequestTimeout:   config.Duration(cfg.Provider.Timeout, 20*time.Second) + 10*time.Second,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", finalPort).
			Str("store", cfg.StoreDriver()).
			Str("provider", cfg.ProviderKind()).
			Msg("starting riddle service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore selects the state repository for the configured driver.
func openStore(ctx context.Context, cfg config.Config) (app.StateRepository, func(), error) {
	noop := func() {}
	switch driver := cfg.StoreDriver(); driver {
	case "memory":
		log.Warn().Msg("using in-memory store; state is lost on restart")
		return memory.NewStateStore(), noop, nil
	case "sqlite":
		path := cfg.SQLite.Path
		if path == "" {
			path = "data/riddleme.db"
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		return store, closer(store, "sqlite"), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		return redisstore.NewStateStore(client, cfg.Redis.Key), closer(client, "redis"), nil
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, noop, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		return pgstore.NewStateStore(pool), pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", driver)
	}
}

func closer(c io.Closer, name string) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Str("store", name).Msg("close store")
		}
	}
}

// newGenerator picks the riddle provider.
func newGenerator(cfg config.Config) (app.RiddleGenerator, error) {
	switch kind := cfg.ProviderKind(); kind {
	case "static":
		return memory.NewClassicCatalog(), nil
	case "openai":
		if cfg.Provider.APIKey == "" {
			return nil, errors.New("provider openai requires provider.api_key or OPENAI_API_KEY")
		}
		return openai.New(openai.Config{
			APIKey:      cfg.Provider.APIKey,
			BaseURL:     cfg.Provider.BaseURL,
			Model:       cfg.Provider.Model,
			Temperature: cfg.Provider.Temperature,
			MaxTokens:   cfg.Provider.MaxTokens,
			Timeout:     config.Duration(cfg.Provider.Timeout, 20*time.Second),
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
}
