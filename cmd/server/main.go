// Command server runs the user and role API.
//
// @title                       User & Role API
// @version                     1.0
// @description                 Signup, login, bearer-token access control and user/role administration.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

//go:generate swag init -d ../.. -g cmd/server/main.go -o ../../docs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/userrole/auth-api/internal/api"
	"github.com/userrole/auth-api/internal/api/metrics"
	"github.com/userrole/auth-api/internal/core/ports"
	"github.com/userrole/auth-api/internal/core/service"
	"github.com/userrole/auth-api/internal/infrastructure/db/memory"
	mongostore "github.com/userrole/auth-api/internal/infrastructure/db/mongo"
	"github.com/userrole/auth-api/internal/infrastructure/db/postgres"
	rediscache "github.com/userrole/auth-api/internal/infrastructure/db/redis"
	"github.com/userrole/auth-api/internal/infrastructure/http/handlers"
	"github.com/userrole/auth-api/internal/pkg/config"
	"github.com/userrole/auth-api/pkg/logger"
)

const serviceName = "auth-api"

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger.Component(log, "storage"))
	if err != nil {
		return err
	}
	defer store.close()

	cache, closeCache, err := openIdentityCache(ctx, cfg, store.checks, logger.Component(log, "cache"))
	if err != nil {
		return err
	}
	defer closeCache()

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokens := service.NewTokenService(cfg.JWTSecret)

	seed, err := service.NewSeeder(store.users, store.roles, hasher, logger.Component(log, "seed")).Seed(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap seed: %w", err)
	}
	metrics.SeedRowsCreatedTotal.WithLabelValues("role").Add(float64(len(seed.RolesCreated)))
	metrics.SeedRowsCreatedTotal.WithLabelValues("user").Add(float64(len(seed.UsersCreated)))

	e := api.NewRouter(api.Deps{
		AuthService: service.NewAuthService(store.users, store.roles, tokens, hasher, cache, logger.Component(log, "auth")),
		UserService: service.NewUserService(store.users, store.roles, hasher, cache, logger.Component(log, "users")),
		RoleService: service.NewRoleService(store.roles, cache, logger.Component(log, "roles")),
		Checks:      store.checks,
		Log:         logger.Component(log, "http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// storage bundles the repositories of the selected driver with its
// readiness checks and cleanup.
type storage struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	checks map[string]handlers.Check
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Str("host", cfg.Postgres.Host).Str("db", cfg.Postgres.Database).Msg("postgres connected")
		return &storage{
			users:  postgres.NewUserRepository(pool),
			roles:  postgres.NewRoleRepository(pool),
			checks: map[string]handlers.Check{"postgres": pool.Ping},
			close:  pool.Close,
		}, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info().Str("db", cfg.Mongo.Database).Msg("mongodb connected")
		return &storage{
			users: mongostore.NewUserRepository(db),
			roles: mongostore.NewRoleRepository(db),
			checks: map[string]handlers.Check{
				"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			},
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		mem := memory.NewStore()
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return &storage{
			users:  mem.Users(),
			roles:  mem.Roles(),
			checks: map[string]handlers.Check{"memory": mem.Ping},
			close:  func() {},
		}, nil
	}
}

// openIdentityCache connects Redis when configured and registers its
// readiness check. Without REDIS_ADDR the guard always reads the store.
func openIdentityCache(ctx context.Context, cfg *config.Config, checks map[string]handlers.Check, log zerolog.Logger) (ports.IdentityCache, func(), error) {
	if !cfg.CacheEnabled() {
		return service.NoopIdentityCache{}, func() {}, nil
	}

	client, err := rediscache.Connect(ctx, rediscache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("identity cache enabled")
	return rediscache.NewIdentityCache(client, cfg.Redis.TTL), func() { _ = client.Close() }, nil
}
