// Package server wires the roleplay backend together: configuration,
// storage, services and the HTTP and gRPC listeners.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/dmitrijs2005/roleplay/internal/server/auth"
	"github.com/dmitrijs2005/roleplay/internal/server/config"
	"github.com/dmitrijs2005/roleplay/internal/server/mailer"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/roleplay/internal/server/rest"
	"github.com/dmitrijs2005/roleplay/internal/server/services"

	gs "github.com/dmitrijs2005/roleplay/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	services rest.Services
	health   *gs.GRPCServer
}

var openDB = func(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		services: newServices(c, db, rm, logger),
		health:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger),
	}
	app.health.SetServing(true)

	return app, nil
}

func newServices(c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) rest.Services {
	hasher := auth.NewHasher(c.BcryptCost)
	sender := mailer.NewSender(c.SendGridAPIKey, c.MailFromAddress, c.MailFromName, logger)

	passwords := services.NewPasswordService(db, rm, hasher, sender, logger, c.ResetTokenValidityDuration)
	passwords.SetDefaultResetURL(c.ResetURL)

	return rest.Services{
		Users:         services.NewUserService(db, rm, hasher, logger),
		Sessions:      services.NewSessionService(db, rm, hasher, logger),
		Passwords:     passwords,
		Groups:        services.NewGroupService(db, rm, logger),
		GroupRequests: services.NewGroupRequestService(db, rm, logger),
		Avatars:       services.NewAvatarService(db, rm, c, logger),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.services)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or a listener fails, then
// waits for both listeners to stop and closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()
	app.health.SetServing(false)

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "err", err)
	}
	app.logger.Info(ctx, "App stopped")
}
