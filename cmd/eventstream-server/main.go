// Package main provides the eventstream server executable: the standalone
// composition root wiring the Redis broker, publisher, subscriber, handlers,
// router and the optional dead-letter archive.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coregx/eventstream"
	"github.com/coregx/eventstream/adapters/goredis"
	relicaadapter "github.com/coregx/eventstream/adapters/relica"
	"github.com/coregx/eventstream/cmd/eventstream-server/internal/config"
	"github.com/coregx/eventstream/retry"
)

// SimpleLogger implements eventstream.Logger for standard logging.
type SimpleLogger struct{}

func (l *SimpleLogger) Debugf(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}
func (l *SimpleLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}
func (l *SimpleLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}
func (l *SimpleLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

// handlerRetryPolicies derives the handler backoff policies from the
// configured base delay, keeping the per-handler attempt counts.
func handlerRetryPolicies(cfg *config.Config) (standard, audit retry.Policy) {
	base := time.Duration(cfg.Retry.HandlerBaseDelayMs) * time.Millisecond

	standard = retry.DefaultPolicy()
	standard.BaseDelay = base
	audit = retry.AuditPolicy()
	audit.BaseDelay = base
	return standard, audit
}

func main() {
	log.Println("Starting eventstream server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := &SimpleLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broker
	broker := goredis.NewBroker(goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := broker.Close(); err != nil {
			logger.Warnf("Failed to close broker: %v", err)
		}
	}()
	if err := broker.Ping(ctx); err != nil {
		// The delivery core is best-effort infrastructure: an unreachable
		// broker keeps the process alive, the router will report not-ready.
		logger.Errorf("Redis unreachable at %s: %v", cfg.Redis.Addr, err)
	}

	// Publisher / dead-lettering
	publisher, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(broker),
		eventstream.WithPublisherLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	notifications := eventstream.NewLoggingNotificationService(logger)
	deadLetters := eventstream.NewDeadLetterer(publisher, logger).
		WithNotifications(notifications)

	// Subscriber
	reconnect := retry.ReconnectPolicy()
	reconnect.MaxAttempts = cfg.Retry.ReconnectMaxAttempts

	subscriber, err := eventstream.NewSubscriber(
		eventstream.WithSubscriberBroker(broker),
		eventstream.WithSubscriberLogger(logger),
		eventstream.WithSubscriberReconnectPolicy(reconnect),
		eventstream.WithSubscriberNotifications(notifications),
	)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}

	// Router with all concrete handlers
	standardPolicy, auditPolicy := handlerRetryPolicies(cfg)
	router, err := eventstream.NewRouter(
		eventstream.WithRouterSubscriber(subscriber),
		eventstream.WithRouterDeadLetterer(deadLetters),
		eventstream.WithRouterLogger(logger),
		eventstream.WithRouterHandlers(
			eventstream.NewProductCreatedHandler(logger, standardPolicy),
			eventstream.NewProductUpdatedHandler(logger, standardPolicy),
			eventstream.NewProductDeletedHandler(logger, standardPolicy),
			eventstream.NewAuditEventHandler(logger, auditPolicy),
		),
	)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	router.Initialize(ctx)
	if router.IsReady() {
		log.Println("Router initialized")
	} else {
		log.Println("Router not ready, event delivery disabled")
	}

	// Optional dead-letter archive
	if cfg.ArchiveEnabled() && router.IsReady() {
		db, err := sql.Open(cfg.Archive.Driver, cfg.Archive.GetDSN())
		if err != nil {
			logger.Errorf("Failed to open archive database: %v", err)
		} else {
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					logger.Warnf("Failed to close archive database: %v", closeErr)
				}
			}()
			if err := db.Ping(); err != nil {
				logger.Errorf("Archive database unreachable, archiving disabled: %v", err)
			} else {
				repo := relicaadapter.NewDeadLetterRepository(db, cfg.Archive.Driver)
				archiver, err := eventstream.NewDeadLetterArchiver(
					eventstream.WithArchiverSubscriber(subscriber),
					eventstream.WithArchiverRepository(repo),
					eventstream.WithArchiverLogger(logger),
				)
				if err != nil {
					logger.Errorf("Failed to create dead-letter archiver: %v", err)
				} else if err := archiver.Start(ctx); err != nil {
					logger.Errorf("Failed to start dead-letter archiver: %v", err)
				} else {
					log.Println("Dead-letter archiver started")
				}
			}
		}
	}

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	router.Shutdown(shutdownCtx)

	log.Println("Server stopped")
}
