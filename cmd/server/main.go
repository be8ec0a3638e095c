package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actuallystonmai/users-service/internal/cache"
	"github.com/actuallystonmai/users-service/internal/config"
	"github.com/actuallystonmai/users-service/internal/handler"
	"github.com/actuallystonmai/users-service/internal/repository"
	"github.com/actuallystonmai/users-service/internal/router"
	"github.com/actuallystonmai/users-service/internal/service"
	"github.com/actuallystonmai/users-service/internal/store"
	"github.com/actuallystonmai/users-service/internal/validation"
	"github.com/actuallystonmai/users-service/seeds"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := parseCommand(os.Args[1:], cfg.Storage)
	if err != nil {
		log.Fatalf("%v", err)
	}
	migrateDown := cmd == cmdMigrateDown

	// ------------ Storage ---------------
	var users service.UserStore
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := openPostgres(ctx, cfg)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()

		if migrateDown {
			if err := migrate(ctx, pool, "migrations/create_tables.down.sql"); err != nil {
				log.Fatalf("failed to migrate down %v", err)
			}
			log.Println("migrations dropped")
			return
		}
		if err := migrate(ctx, pool, "migrations/create_tables.up.sql"); err != nil {
			log.Fatalf("failed to migrate up %v", err)
		}
		users = repository.NewRepository(pool)
	default:
		var persister store.Persister
		if cfg.DataFile != "" {
			persister = store.NewFilePersister(cfg.DataFile)
		}
		mem := store.New(persister)
		if err := mem.Load(ctx); err != nil {
			log.Fatalf("failed to load users %v", err)
		}
		users = mem
	}

	// ------------ Redis ---------------
	var userCache service.UserCache
	if cfg.RedisURL != "" {
		c, closeRedis, err := openRedis(ctx, cfg)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer closeRedis()
		userCache = c
	}

	// ------------ Setup Seed Data ---------------
	if err := checkSeed(ctx, users, cfg.SeedUsers); err != nil {
		log.Fatalf("failed to check seed %v", err)
	}

	// ---------------- Server --------------------
	svc := service.NewService(users, userCache, validation.New())
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(handler.NewHandler(svc), cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server running on %s (storage=%s)", cfg.Addr(), cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Println("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

const (
	cmdServe       = "serve"
	cmdMigrateDown = "migrate-down"
)

// parseCommand picks the subcommand. migrate-down only makes sense against
// postgres, so any other backend is rejected rather than starting a server.
func parseCommand(args []string, storage string) (string, error) {
	if len(args) == 0 {
		return cmdServe, nil
	}
	switch args[0] {
	case cmdServe:
		return cmdServe, nil
	case cmdMigrateDown:
		if storage != config.StoragePostgres {
			return "", fmt.Errorf("%s requires STORAGE=%s, got %q", cmdMigrateDown, config.StoragePostgres, storage)
		}
		return cmdMigrateDown, nil
	}
	return "", fmt.Errorf("unknown command %q", args[0])
}

func openPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := waitFor(ctx, "database", pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	log.Println("connected to PostgreSQL")
	return pool, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*cache.Cache, func(), error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	closeFn := func() { client.Close() }

	c := cache.NewCache(client, cfg.CacheTTL)
	if err := waitFor(ctx, "redis", c.Ping); err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := c.Clear(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("clear cache: %w", err)
	}
	log.Println("connected to Redis")
	return c, closeFn, nil
}

func waitFor(ctx context.Context, name string, ping func(context.Context) error) error {
	for i := 0; i < 30; i++ {
		if err := ping(ctx); err == nil {
			return nil
		}
		log.Printf("waiting for %s... (%d/30)", name, i+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return fmt.Errorf("%s connection timeout after 30s", name)
}

func migrate(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	log.Printf("migration %s applied successfully", path)
	return nil
}

func checkSeed(ctx context.Context, users service.UserStore, n int) error {
	if n <= 0 {
		return nil
	}
	existing, err := users.List(ctx)
	if err != nil {
		return fmt.Errorf("check users count: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("store already seeded (%d users), skipping", len(existing))
		return nil
	}
	return seeds.Setup(ctx, users, n)
}
