// @title           BGI Launchpad Auth API
// @version         1.0
// @description     Stateless bearer-token authentication for the campus portal.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	_ "github.com/bgi/launchpad-auth/docs"
	"github.com/bgi/launchpad-auth/internal/api"
	"github.com/bgi/launchpad-auth/internal/api/handler"
	"github.com/bgi/launchpad-auth/internal/api/metrics"
	"github.com/bgi/launchpad-auth/internal/core/policy"
	"github.com/bgi/launchpad-auth/internal/core/service"
	"github.com/bgi/launchpad-auth/internal/infrastructure/db/mongo"
	"github.com/bgi/launchpad-auth/internal/infrastructure/db/redis"
	"github.com/bgi/launchpad-auth/internal/infrastructure/security"
	"github.com/bgi/launchpad-auth/internal/pkg/config"
	"github.com/bgi/launchpad-auth/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "launchpad-auth"})
		bootLog.Fatal().Err(err).Msg("startup failed")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "launchpad-auth",
		Caller:  !cfg.Production(),
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Signing key ---
	secret, err := cfg.JWT.ReadSecret()
	if err != nil {
		return err
	}
	keys, err := security.NewKeyring(secret)
	if err != nil {
		return err
	}

	// --- Stores ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	store := mongo.NewCredentialStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Access policy ---
	accessPolicy := policy.Default()
	if cfg.AccessPolicyFile != "" {
		if accessPolicy, err = policy.Load(cfg.AccessPolicyFile); err != nil {
			return err
		}
	}
	log.Info().Int("rules", len(accessPolicy.Rules())).Str("file", cfg.AccessPolicyFile).Msg("access policy loaded")

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		return err
	}

	// --- Core ---
	codec := security.NewJWTCodec(keys, cfg.JWT.Issuer)
	hasher := metrics.InstrumentHasher(security.NewBcryptHasher(cfg.JWT.BcryptCost))
	authService := service.NewAuthService(store, hasher, codec, service.Options{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Lock:       redis.NewRegistrationLock(rdb, cfg.Redis.LockTTL),
		LockWait:   cfg.Redis.LockWait,
	}, logger.Named("auth"))

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Tokens:      codec,
		Identities:  store,
		Policy:      accessPolicy,
		Checks: map[string]handler.Pinger{
			"mongodb": mongo.Pinger{DB: db},
			"redis":   redis.Pinger{Client: rdb},
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Registry:       registry,
		Log:            log,
	})

	go rotateOnHangup(ctx, keys, log)

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

// rotateOnHangup swaps the signing key on SIGHUP. Every outstanding token is
// invalid from then on.
func rotateOnHangup(ctx context.Context, keys *security.Keyring, log zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
		}

		if err := rotateKey(ctx, keys, envconfig.OsLookuper()); err != nil {
			log.Error().Err(err).Msg("key rotation rejected")
			continue
		}
		log.Warn().Int("version", keys.Version()).Time("rotated_at", keys.RotatedAt()).Msg("signing key rotated, outstanding tokens invalidated")
	}
}

// rotateKey reloads the signing secret through l and installs it in keys.
func rotateKey(ctx context.Context, keys *security.Keyring, l envconfig.Lookuper) error {
	cfg, err := config.LoadWith(ctx, l)
	if err != nil {
		return err
	}
	secret, err := cfg.JWT.ReadSecret()
	if err != nil {
		return err
	}
	return keys.Rotate(secret)
}
