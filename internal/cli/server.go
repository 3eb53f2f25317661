package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/game"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/opentdb"
	pginfra "trivia-quiz-service/internal/infra/postgres"
	redisinfra "trivia-quiz-service/internal/infra/redis"
	transport "trivia-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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

	provider := opentdb.NewClient(cfg.Trivia.BaseURL, config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second))
	triviaTTL := config.TTLDuration(cfg.Trivia.TTL, 10*time.Minute)
	var source game.QuestionSource
	if redisClient != nil {
		source = redisinfra.NewQuestionCache(redisClient, provider, triviaTTL)
	} else {
		source = memory.NewQuestionCache(provider, triviaTTL)
	}

	var (
		ledger      game.ScoreLedger
		leaderboard game.LeaderboardSource
		users       auth.UserStore
	)
	if pool != nil {
		pgLedger := pginfra.NewScoreLedger(pool)
		ledger = pgLedger
		leaderboard = pgLedger
		users = pginfra.NewUserStore(pool)
	} else {
		memLedger := memory.NewScoreLedger()
		ledger = memLedger
		leaderboard = memLedger
		users = memory.NewUserStore()
	}

	authService := auth.NewService(users, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))

	settings := game.Settings{
		Length:         cfg.Round.Length,
		QuestionBudget: config.TTLDuration(cfg.Round.QuestionBudget, 10*time.Second),
		AdvanceDelay:   config.TTLDuration(cfg.Round.AdvanceDelay, time.Second),
	}
	round := game.NewRound(settings, source, game.NewAdjudicator(ledger))

	var presence transport.RoomPresence
	if redisClient != nil {
		presence = redisinfra.NewRoomStore(redisClient, redisTTL)
	}
	hub := transport.NewHub(presence)
	wsHandler := transport.NewWSHandler(round, hub, authService)
	apiHandler := transport.NewAPIHandler(authService, ledger, leaderboard)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/register", apiHandler.Register)
	mux.HandleFunc("/login", apiHandler.Login)
	mux.HandleFunc("/logout", apiHandler.Logout)
	mux.HandleFunc("/scores", apiHandler.Scores)
	mux.HandleFunc("/leaderboard", apiHandler.Leaderboard)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
