// Package server wires configuration, storage, services and the REST API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/moodjournal/internal/logging"
	"github.com/dmitrijs2005/moodjournal/internal/server/auth"
	"github.com/dmitrijs2005/moodjournal/internal/server/config"
	"github.com/dmitrijs2005/moodjournal/internal/server/keys"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodjournal/internal/server/rest"
	"github.com/dmitrijs2005/moodjournal/internal/server/services"
	"github.com/redis/go-redis/v9"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *rest.RESTServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	if c.UsesDefaultSecrets() {
		logger.Warn(ctx, "using development secrets; set JWT_SECRET and AES_KEY_SECRET")
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	if err := app.wire(rm); err != nil {
		_ = app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) wire(rm repomanager.RepositoryManager) error {
	c := app.config

	issuer := auth.NewIssuer(c.SecretKey, c.TokenValidityDuration)
	custodian := keys.NewCustodian(c.KeyWrapSecret, app.logger)

	us, err := services.NewUserService(app.db, rm, custodian, issuer, c.BcryptCost, app.logger)
	if err != nil {
		return err
	}
	es := services.NewEntryService(app.db, rm)

	opts := rest.Options{CORSOrigins: c.CORSOrigins, ShutdownTimeout: c.ShutdownTimeout}

	if as := services.NewArchiveService(es, c); as.Enabled() {
		opts.Archive = as
	}

	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		opts.Limiter = rest.NewRedisLimiter(app.redis, c.LoginRateLimit, c.LoginRateWindow)
	}

	app.server = rest.NewRESTServer(c.HTTPAddr, app.logger, us, es, issuer, opts)
	return nil
}

func (app *App) close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "REST server failed", "error", err)
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(ctx, "close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
