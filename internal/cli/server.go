package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"biggame-service/internal/app"
	"biggame-service/internal/config"
	"biggame-service/internal/domain"
	"biggame-service/internal/infra/memory"
	pgstore "biggame-service/internal/infra/postgres"
	redisstore "biggame-service/internal/infra/redis"
	transport "biggame-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var store app.MatchStore = memory.NewMatchStore(sampleMatches())
	if pool != nil {
		store = pgstore.NewMatchStore(pool)
	}
	if redisClient != nil {
		store = redisstore.NewMatchStore(redisClient, store, redisTTL)
	}

	clock := clockwork.NewRealClock()
	sessionTTL := config.TTLDuration(cfg.Session.TTL, 4*time.Hour)
	sweep := config.TTLDuration(cfg.Session.Sweep, time.Minute)

	registry := app.NewSessionRegistry(clock, sessionTTL)
	service := app.NewGameService(registry, store, clock)

	evictCtx, cancelEvict := context.WithCancel(ctx)
	defer cancelEvict()
	go registry.RunEvictor(evictCtx, sweep, service.EvictExpired(evictCtx))

	wsHandler := transport.NewWSHandler(service)
	sessionHandler := transport.NewSessionHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/sessions", sessionHandler.Create)
	mux.HandleFunc("/sessions/restore", sessionHandler.Restore)
	mux.HandleFunc("/sessions/finalize", sessionHandler.Finalize)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting game service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleMatches seeds a demo match for running without Postgres.
func sampleMatches() map[string]app.MatchRecord {
	return map[string]app.MatchRecord{
		"match-1": {
			ID:   "match-1",
			Name: "Demo Big Game",
			Config: domain.MatchConfig{
				Teams: []domain.TeamConfig{
					{ID: "t1", Name: "Alpha"},
					{ID: "t2", Name: "Beta"},
				},
				Games: map[domain.GameKind]*domain.GameConfig{
					domain.GameSequential: {Rounds: 2, Questions: 5, Cost: 100},
					domain.GameMatrix:     {Rounds: 1, Questions: 5, Cost: 10},
					domain.GameQuiz: {
						Rounds:     2,
						Questions:  5,
						Cost:       10,
						RoundKinds: []domain.RoundKind{domain.RoundNormal, domain.RoundBlitz},
					},
				},
			},
		},
	}
}
