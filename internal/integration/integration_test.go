package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
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

	"riddleme-service/internal/app"
	"riddleme-service/internal/domain"
	pgstore "riddleme-service/internal/infra/postgres"
	pgmigrations "riddleme-service/internal/infra/postgres/migrations"
	infraredis "riddleme-service/internal/infra/redis"
)

func TestPostgresStateStoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	playAliceRound(t, ctx, pgstore.NewStateStore(pool))

	// A fresh service over the same table sees the persisted state.
	reloaded, err := pgstore.NewStateStore(pool).Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Riddles) != 2 || reloaded.CurrentRiddleID != 2 || len(reloaded.Leaderboard) != 1 {
		t.Fatalf("unexpected persisted state %+v", reloaded)
	}
}

func TestRedisStateStoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	playAliceRound(t, ctx, infraredis.NewStateStore(redisClient, "riddleme:it"))

	reloaded, err := infraredis.NewStateStore(redisClient, "riddleme:it").Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Leaderboard[0].Points != 10 {
		t.Fatalf("unexpected persisted leaderboard %+v", reloaded.Leaderboard)
	}
}

// playAliceRound reveals one hint, misses once, then solves for 10 points.
func playAliceRound(t *testing.T, ctx context.Context, store app.StateRepository) {
	t.Helper()
	feed := app.NewFeed()
	riddles := app.NewRiddleService(store, &sequenceGenerator{}, feed, app.RiddleOptions{})
	scoring := app.NewScoringService(riddles, feed, app.ScoringOptions{Enforce: true})

	current, err := riddles.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.ID != 1 {
		t.Fatalf("expected riddle 1, got %d", current.ID)
	}

	wrong, err := scoring.SubmitAnswer(ctx, domain.AnswerSubmission{
		Username: "alice", RiddleID: 1, Answer: "shadow", HintsUsed: 1, ProposedPoints: 15,
	})
	if err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if wrong.Correct || wrong.RemainingPoints != 10 {
		t.Fatalf("unexpected wrong result %+v", wrong)
	}

	right, err := scoring.SubmitAnswer(ctx, domain.AnswerSubmission{
		Username: "alice", RiddleID: 1, Answer: "echo", HintsUsed: 1, ProposedPoints: 10,
	})
	if err != nil {
		t.Fatalf("submit right: %v", err)
	}
	if !right.Correct || right.Points != 10 || right.TotalPoints != 10 {
		t.Fatalf("unexpected correct result %+v", right)
	}

	board, err := scoring.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0] != (domain.LeaderboardEntry{Username: "alice", Points: 10}) {
		t.Fatalf("unexpected leaderboard %+v", board)
	}
	next, err := riddles.Current(ctx)
	if err != nil || next.ID != 2 {
		t.Fatalf("expected rotation to riddle 2, got %+v (%v)", next, err)
	}
}

type sequenceGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *sequenceGenerator) Generate(_ context.Context, _ domain.GenerationRequest) (domain.GeneratedRiddle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls == 1 {
		return domain.GeneratedRiddle{
			Question: "I speak without a mouth and hear without ears. What am I?",
			Answer:   "Echo",
			Hints:    []string{"I bounce back", "Sound related", "Mountains have me"},
		}, nil
	}
	return domain.GeneratedRiddle{
		Question: fmt.Sprintf("Riddle %d?", g.calls),
		Answer:   fmt.Sprintf("answer-%d", g.calls),
		Hints:    []string{"a", "b", "c"},
	}, nil
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "riddle", "POSTGRES_PASSWORD": "riddlepass", "POSTGRES_DB": "riddledb"},
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
	dsn := fmt.Sprintf("postgres://riddle:riddlepass@%s:%s/riddledb?sslmode=disable", host, port.Port())
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

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
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
