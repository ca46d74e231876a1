package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"market/internal/audit"
	"market/internal/auth/credential"
	authhandler "market/internal/auth/handler"
	"market/internal/auth/identity"
	"market/internal/auth/seed"
	authsvc "market/internal/auth/service"
	accountstore "market/internal/auth/store/account"
	itemshandler "market/internal/items/handler"
	itemsvc "market/internal/items/service"
	itemstore "market/internal/items/store"
	jwttoken "market/internal/jwt_token"
	"market/internal/platform/config"
	"market/internal/platform/httpserver"
	"market/internal/platform/logger"
	"market/internal/platform/metrics"
	"market/internal/platform/postgres"
	platformredis "market/internal/platform/redis"
	ratelimit "market/internal/ratelimit/middleware"
	"market/internal/ratelimit/store/bucket"
	httptransport "market/internal/transport/http"
	usershandler "market/internal/users/handler"
	usersvc "market/internal/users/service"
	"market/pkg/platform/circuit"
)

type accountStore interface {
	authsvc.AccountStore
	usersvc.AccountStore
}

type itemStore interface {
	itemsvc.Store
	usersvc.ItemRemover
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires dependencies and blocks until the server stops or a signal arrives.
func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var (
		accounts accountStore
		items    itemStore
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		accounts = accountstore.NewPostgres(db)
		items = itemstore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		if cfg.IsProduction() {
			return errors.New("DATABASE_URL must be set in production")
		}
		accounts = accountstore.New()
		items = itemstore.NewMemory()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	sink, closeSink, err := auditSink(cfg, log, m)
	if err != nil {
		return err
	}
	defer closeSink()
	publisher := audit.NewPublisher(sink, log, audit.WithFailureRecorder(m))

	if cfg.UsesDevSigningKey() {
		log.Warn("using development JWT signing key")
	}
	hasher := credential.NewHasher(cfg.Auth.BcryptCost)
	tokens := jwttoken.New(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		n, err := seed.Apply(ctx, f, accounts, hasher, log)
		if err != nil {
			return err
		}
		log.Info("seed applied", "created", n)
	}

	limiter, closeLimiter := rateLimiter(ctx, cfg, log, m)
	defer closeLimiter()

	auth := authsvc.New(accounts, hasher, tokens,
		authsvc.WithLogger(log),
		authsvc.WithAuditPublisher(publisher),
		authsvc.WithMetrics(m),
	)
	users := usersvc.New(accounts,
		usersvc.WithLogger(log),
		usersvc.WithAuditPublisher(publisher),
		usersvc.WithItemRemover(items),
	)
	catalog := itemsvc.New(items,
		itemsvc.WithLogger(log),
		itemsvc.WithAuditPublisher(publisher),
	)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Environment:    cfg.Environment,
		ClientURLs:     cfg.ClientURLs,
		BodyLimit:      cfg.BodyLimit,
		StartedAt:      time.Now(),
		TrustedProxies: cfg.TrustedProxies,
		Resolver:       identity.NewResolver(tokens, accounts),
		RateLimit:      limiter,
		Metrics:        m,
		Gatherer:       reg,
		Auth:           authhandler.New(auth, log, m),
		Users:          usershandler.New(users, log, m),
		Items:          itemshandler.New(catalog, log, m),
	})
	srv := httpserver.New(cfg.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting market", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// auditSink prefers Kafka when brokers are configured and logs otherwise.
func auditSink(cfg config.Server, log *slog.Logger, m *metrics.Metrics) (audit.Sink, func(), error) {
	if len(cfg.Audit.KafkaBrokers) == 0 {
		return audit.NewLogSink(log), func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.Topic, func(err error) {
		log.Error("audit delivery failed", "error", err)
		m.IncrementAuditPublishErrors()
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("audit events go to kafka", "topic", cfg.Audit.Topic)
	return sink, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.Close(ctx); err != nil {
			log.Warn("audit sink close failed", "error", err)
		}
	}, nil
}

// rateLimiter uses Redis when reachable, backed by a local limiter while it
// is failing. Without Redis every instance limits on its own.
func rateLimiter(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (*ratelimit.Middleware, func()) {
	local := bucket.New()
	opts := []ratelimit.Option{
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithRecorder(m),
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, rate limiting in memory", "error", err)
	}
	if rc == nil {
		return ratelimit.New(local, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, log, opts...), func() {}
	}

	opts = append(opts, ratelimit.WithFallback(local, circuit.New("ratelimit-redis")))
	mw := ratelimit.New(bucket.NewRedis(rc.Client), cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, log, opts...)
	return mw, func() {
		if err := rc.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
}
