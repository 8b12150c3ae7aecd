package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/config"
	"clinic-booking-api/internal/database"
	"clinic-booking-api/internal/handler"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/router"
	"clinic-booking-api/internal/rpc"
	"clinic-booking-api/internal/service"
	"clinic-booking-api/internal/store"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *migrateOnly); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(app config.AppConfig) (*zap.Logger, error) {
	if app.Dev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, log *zap.Logger, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Migrations || migrateOnly {
		if err := database.Migrate(cfg.Database.URL, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if migrateOnly {
		return nil
	}

	pool, err := database.Connect(ctx, cfg.Database.URL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	st := store.New(pool)
	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	accounts := service.NewAccounts(st, st, auth.NewHasher(cfg.Auth.BcryptCost), tokens)
	appts := service.NewAppointments(st)

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	httpSrv := &http.Server{
		Addr: ":" + cfg.Server.HTTPPort,
		Handler: router.New(router.Deps{
			Handler:     handler.New(accounts, appts, st, log),
			Verifier:    accounts,
			Limiter:     limiter,
			CORSOrigins: cfg.Server.CORSOrigins,
			Log:         log,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	grpcSrv, hs := rpc.NewServer(rpc.Deps{
		Appointments: appts,
		Verifier:     accounts,
		Limiter:      limiter,
		Log:          log,
	})
	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errc := make(chan error, 2)
	go func() {
		log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		if err := grpcSrv.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		log.Info("http listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		log.Error("listener failed", zap.Error(err))
	}

	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	grpcSrv.GracefulStop()
	return nil
}

// newLimiter returns the redis limiter when REDIS_ADDR is set and
// reachable, else the in-process token bucket.
func newLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (middleware.Limiter, func()) {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rdb.Ping(pingCtx).Err()
		if err == nil {
			log.Info("rate limiting via redis", zap.String("addr", cfg.Redis.Addr))
			rl := middleware.NewRedisLimiter(rdb, "clinic:ratelimit", cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.Block)
			return rl, func() { _ = rdb.Close() }
		}
		log.Warn("redis unavailable, using in-process rate limiter", zap.Error(err))
		_ = rdb.Close()
	}
	rl := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	return rl, rl.Close
}
