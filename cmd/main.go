package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "lost_and_found/docs"
	"lost_and_found/internal/config"
	"lost_and_found/internal/handlers"
	"lost_and_found/internal/logger"
	"lost_and_found/internal/mailer"
	"lost_and_found/internal/models"
	"lost_and_found/internal/repository"
	"lost_and_found/internal/repository/db"
	"lost_and_found/internal/security"
	"lost_and_found/internal/server"
	"lost_and_found/internal/service"
)

// @title                       Lost & Found auth API
// @version                     1.0
// @description                 Signup, email verification and session login.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        auth_token
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level, logger.WithFile(cfg.Log.File))
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid config", "err", err)
	}
	log.Infow("starting", "env", cfg.App.Env, "db", cfg.DB.Driver, "mail", cfg.Mail.Driver)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := openDB(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to init database", "driver", cfg.DB.Driver, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	repos := repository.NewRepository(conn, repository.Dialect(cfg.DB.Driver))

	hasher, err := security.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
	if err != nil {
		log.Fatalw("failed to init password hasher", "err", err)
	}
	signer, err := security.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		log.Fatalw("failed to init session signer", "err", err)
	}

	dispatcher, err := newDispatcher(cfg, repos.EventRepo, log)
	if err != nil {
		log.Fatalw("failed to init mailer", "err", err)
	}
	go dispatcher.Run(ctx)

	services := service.NewService(repos, service.Deps{
		Hasher:   hasher,
		Tokens:   security.RandomTokenGenerator{},
		Signer:   signer,
		Notifier: dispatcher,
		BaseURL:  cfg.App.BaseURL,
	}, log)

	prod := cfg.App.IsProduction()
	apiHandler := handlers.NewHandler(services, log, handlers.Options{
		SecureCookie: prod,
		SessionTTL:   cfg.Auth.SessionTTL,
		Diagnostics:  !prod,
	})

	srv := server.New(server.Timeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Write:      cfg.HTTP.WriteTimeout,
		Idle:       cfg.HTTP.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, cfg, log)
}

// openDB connects to the configured backend and applies pending migrations.
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return db.InitDB(ctx, db.Options{
		Driver:       cfg.DB.Driver,
		Path:         cfg.DB.Path,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	})
}

// newDispatcher builds the outbound mail queue. Undeliverable verification
// emails are written to the audit log as NOTIFY_FAILED.
func newDispatcher(cfg *config.Config, events repository.EventRepo, log *logger.Logger) (*mailer.Dispatcher, error) {
	var sender mailer.Sender
	switch cfg.Mail.Driver {
	case "smtp":
		s, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			TLS:      cfg.Mail.TLS,
		})
		if err != nil {
			return nil, err
		}
		sender = s
	default:
		sender = mailer.NewLogSender(log)
	}

	onFailure := func(ctx context.Context, m mailer.Message, err error) {
		appendErr := events.Append(context.WithoutCancel(ctx), models.AuthEvent{
			Type:        models.EventNotifyFailed,
			Description: "verification email could not be delivered",
			Metadata:    map[string]any{"to": m.To, "reason": err.Error()},
		})
		if appendErr != nil {
			log.Errorw("audit_append_failed", "type", models.EventNotifyFailed, "err", appendErr)
		}
	}

	return mailer.NewDispatcher(sender, log,
		mailer.WithQueueSize(cfg.Mail.QueueSize),
		mailer.WithSendTimeout(cfg.Mail.SendTimeout),
		mailer.WithFailureHook(onFailure),
	), nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, cfg *config.Config, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete before the mail worker stops
	ctx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	cancel()
}
