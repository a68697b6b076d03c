package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"prepquiz-service/internal/app"
	"prepquiz-service/internal/domain"
	pginfra "prepquiz-service/internal/infra/postgres"
	pgmigrations "prepquiz-service/internal/infra/postgres/migrations"
	redisinfra "prepquiz-service/internal/infra/redis"
)

func TestAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedData(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizRepo := redisinfra.NewQuizRepository(redisClient, pginfra.NewQuizLoader(pool), 5*time.Minute)
	sessions := redisinfra.NewSessionStore(redisClient, 5*time.Minute)
	users := pginfra.NewUserRepository(pool)
	recorder := pginfra.NewAttemptRecorder(pool)
	subs := app.NewSubscriptionService(users, nil, redisinfra.NewTransactionDedup(redisClient, time.Hour))
	service := app.NewAttemptService(sessions, quizRepo, recorder, subs)

	session, err := service.Start(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, remaining, _ := session.State(); remaining != 120 {
		t.Fatalf("expected 120s for 2-minute quiz, got %d", remaining)
	}

	if _, err := session.Toggle("4"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	result := session.Finish()
	if result.Score != 1 || result.Total != 1 || result.Percentage != 100 {
		t.Fatalf("unexpected result %+v", result)
	}

	// The recorder write is asynchronous; poll until the row lands.
	deadline := time.Now().Add(10 * time.Second)
	for {
		attempts, err := recorder.ListAttempts(ctx, "u1")
		if err != nil {
			t.Fatalf("list attempts: %v", err)
		}
		if len(attempts) == 1 {
			if attempts[0].QuizID != "quiz-1" || attempts[0].Percentage != 100 {
				t.Fatalf("unexpected attempt %+v", attempts[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("attempt never recorded")
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestLazyExpiryAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	seedData(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	expired := time.Now().Add(-time.Hour)
	if err := users.UpdateSubscription(ctx, "u1", domain.TierPremium, &expired); err != nil {
		t.Fatalf("seed premium: %v", err)
	}

	subs := app.NewSubscriptionService(users, nil, nil)
	user, err := subs.GetSubscription(ctx, "u1")
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if user.SubscriptionType != domain.TierGratuit {
		t.Fatalf("expected lazy downgrade, got %+v", user)
	}

	stored, err := users.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.SubscriptionType != domain.TierGratuit || stored.SubscriptionExpiresAt != nil {
		t.Fatalf("expected stored record downgraded, got %+v", stored)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedData(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO users (id, email, display_name) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`, "u1", "u1@example.com", "Alice"); err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "quiz-1",
		Title:           "Arithmetic",
		DurationMinutes: 2,
		AccessTier:      domain.TierGratuit,
		Questions: []domain.Question{
			{
				Text:           "What is 2 + 2?",
				Options:        []string{"3", "4", "5"},
				CorrectAnswers: []string{"4"},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
