package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mediclass/mediclass/internal/config"
	"github.com/mediclass/mediclass/internal/domain/catalog"
	"github.com/mediclass/mediclass/internal/domain/consult"
	"github.com/mediclass/mediclass/internal/domain/history"
	"github.com/mediclass/mediclass/internal/domain/patient"
	"github.com/mediclass/mediclass/internal/domain/staff"
	"github.com/mediclass/mediclass/internal/platform/auth"
	"github.com/mediclass/mediclass/internal/platform/db"
	"github.com/mediclass/mediclass/internal/platform/document"
	"github.com/mediclass/mediclass/internal/platform/events"
	"github.com/mediclass/mediclass/internal/platform/lock"
	"github.com/mediclass/mediclass/internal/platform/middleware"
)

const lockTTL = 30 * time.Second

// backends are the durable stores shared by the server and the CLI commands.
type backends struct {
	logger      zerolog.Logger
	pool        *pgxpool.Pool
	patientRepo patient.Repository
	staffRepo   staff.Repository
	ledger      *history.Log
	tx          db.Transactor
	checks      []db.Check
	closers     []func()
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*backends, error) {
	b := &backends{logger: logger, tx: db.NopTransactor{}}

	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, poolConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.pool = pool
		b.patientRepo = patient.NewRepoPG(pool)
		b.staffRepo = staff.NewRepoPG(pool)
		b.tx = db.NewTransactor(pool)
		logger.Info().Msg("connected to database")
	default:
		b.patientRepo = patient.NewMemoryRepo()
		b.staffRepo = staff.NewMemoryRepo()
		logger.Warn().Msg("using in-memory stores, data is lost on exit")
	}

	var store history.Store
	switch {
	case cfg.HistoryBackend == config.HistoryFile:
		fs, err := history.NewFileStore(cfg.HistoryDir)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open history directory: %w", err)
		}
		store = fs
		b.checks = append(b.checks, db.Check{Name: "history_dir", Run: fs.Ready})
	case b.pool != nil:
		store = history.NewStorePG(b.pool)
	default:
		store = history.NewMemoryStore()
	}
	b.ledger = history.NewLog(store)

	return b, nil
}

type app struct {
	*backends
	echo *echo.Echo
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{backends: b}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		locker = lock.NewRedisLocker(client, lockTTL)
		logger.Info().Msg("using redis patient locks")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to nats: %w", err)
		}
		a.closers = append(a.closers, p.Close)
		publisher = p
		logger.Info().Msg("publishing ledger events to nats")
	}

	sink, err := newSink(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	exporter := document.NewExporter(sink)

	key, err := signingKey(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.SessionSigningKey == "" {
		logger.Warn().Msg("SESSION_SIGNING_KEY not set, using a random key; sessions end on restart")
	}
	issuer := auth.NewIssuer(key, cfg.SessionTTL)

	patientSvc := patient.NewService(patient.Deps{
		Repo:      b.patientRepo,
		Ledger:    b.ledger,
		Locker:    locker,
		Tx:        b.tx,
		Publisher: publisher,
		Exporter:  exporter,
		Logger:    logger,
	})
	staffSvc := staff.NewService(b.staffRepo, issuer, logger)
	consultSvc := consult.NewService(patientSvc, exporter, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, auth.DevRoleHeader},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	if cfg.IsDev() {
		logger.Warn().Msg("development auth active: requests without a token get the role in " + auth.DevRoleHeader)
		e.Use(auth.DevAuthMiddleware(issuer))
	} else {
		e.Use(auth.SessionMiddleware(issuer))
	}
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(b.pool, version, b.checks...))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	staff.NewHandler(staffSvc).RegisterRoutes(apiV1)
	catalog.NewHandler().RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	history.NewHandler(b.ledger).RegisterRoutes(apiV1)
	consult.NewHandler(consultSvc).RegisterRoutes(apiV1)

	a.echo = e
	return a, nil
}

func newSink(ctx context.Context, cfg *config.Config) (document.Sink, error) {
	if cfg.DocumentSink == config.SinkMinio {
		s, err := document.NewMinioSink(ctx, document.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("open document bucket: %w", err)
		}
		return s, nil
	}
	s, err := document.NewLocalSink(cfg.DocumentDir)
	if err != nil {
		return nil, fmt.Errorf("open document directory: %w", err)
	}
	return s, nil
}

// signingKey returns the configured session key or, when none is set, a
// random one. Validate refuses an empty key outside development.
func signingKey(cfg *config.Config) ([]byte, error) {
	if cfg.SessionSigningKey != "" {
		return []byte(cfg.SessionSigningKey), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session signing key: %w", err)
	}
	return key, nil
}
