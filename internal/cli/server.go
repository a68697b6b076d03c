package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/config"
	"prepquiz-service/internal/domain"
	"prepquiz-service/internal/infra/genai"
	"prepquiz-service/internal/infra/memory"
	"prepquiz-service/internal/infra/payment"
	pginfra "prepquiz-service/internal/infra/postgres"
	redisinfra "prepquiz-service/internal/infra/redis"
	transport "prepquiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz-preparation server",
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
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var users app.UserRepository = memory.NewUserRepository(sampleUsers())
	var recorder app.AttemptRecorder = memory.NewAttemptStore()
	if pool != nil {
		users = pginfra.NewUserRepository(pool)
		recorder = pginfra.NewAttemptRecorder(pool)
	}

	dedupTTL := config.TTLDuration(cfg.Payment.DedupTTL, 48*time.Hour)
	var dedup app.TransactionDeduper = memory.NewTransactionDedup(dedupTTL)
	if redisClient != nil {
		dedup = redisinfra.NewTransactionDedup(redisClient, dedupTTL)
	}

	verifier := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.APIKey, cfg.Payment.SiteID)
	subs := app.NewSubscriptionService(users, verifier, dedup)
	attempts := app.NewAttemptService(sessions, quizRepo, recorder, subs)
	generator := app.NewGeneratorService(genai.NewClient(cfg.Generator.BaseURL, cfg.Generator.APIKey, cfg.Generator.Model))

	router := transport.NewRouter(attempts, subs, generator)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting prepquiz service on :%s", finalPort)
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

// sampleQuizzes provides minimal demo content; production setups load quizzes
// from the document store instead.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:              "quiz-1",
			Title:           "Culture generale",
			DurationMinutes: 2,
			AccessTier:      domain.TierGratuit,
			Questions: []domain.Question{
				{
					Text:           "What is 2 + 2?",
					Options:        []string{"3", "4", "5"},
					CorrectAnswers: []string{"4"},
				},
				{
					Text:           "Which of these are prime numbers?",
					Options:        []string{"2", "3", "4"},
					CorrectAnswers: []string{"2", "3"},
					Explanation:    "4 = 2 x 2, so it is not prime.",
				},
			},
		},
	}
}

func sampleUsers() map[string]domain.User {
	return map[string]domain.User{
		"demo-user": {
			ID:               "demo-user",
			Email:            "demo@example.com",
			DisplayName:      "Demo",
			SubscriptionType: domain.TierGratuit,
		},
	}
}
