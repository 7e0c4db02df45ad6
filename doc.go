// Package eventstream provides the event publish/subscribe delivery core for
// Go services: reliable at-least-once delivery of domain events over a
// channel-based broker, with automatic reconnection, exponential backoff
// retry, and Dead Letter Queue (DLQ) handling for permanently failed events.
//
// # Features
//
//   - At-least-once delivery with idempotent-consumer semantics
//   - Automatic reconnection with bounded exponential backoff
//   - Per-handler retry with exponential backoff before dead-lettering
//   - Dead Letter Queue channel plus optional SQL archive with statistics
//   - Per-channel worker isolation: one bad message never poisons the stream
//   - Pluggable architecture: bring your own Logger, Broker, Notification system
//   - Options Pattern for modern Go API design
//   - Redis broker adapter (go-redis) and in-process adapter for tests
//   - Multi-Database archive support: MySQL, PostgreSQL, SQLite via Relica
//
// # Quick Start
//
// Wire the broker, publisher, subscriber, handlers and router once at process
// start:
//
//	broker := goredis.NewBroker(goredis.Options{Addr: "localhost:6379"})
//
//	publisher, _ := eventstream.NewPublisher(
//	    eventstream.WithPublisherBroker(broker),
//	    eventstream.WithPublisherLogger(logger),
//	)
//
//	subscriber, _ := eventstream.NewSubscriber(
//	    eventstream.WithSubscriberBroker(broker),
//	    eventstream.WithSubscriberLogger(logger),
//	)
//
//	deadLetters := eventstream.NewDeadLetterer(publisher, logger)
//
//	router, _ := eventstream.NewRouter(
//	    eventstream.WithRouterSubscriber(subscriber),
//	    eventstream.WithRouterDeadLetterer(deadLetters),
//	    eventstream.WithRouterLogger(logger),
//	    eventstream.WithRouterHandlers(
//	        eventstream.NewProductCreatedHandler(logger, retry.DefaultPolicy()),
//	        eventstream.NewProductUpdatedHandler(logger, retry.DefaultPolicy()),
//	        eventstream.NewProductDeletedHandler(logger, retry.DefaultPolicy()),
//	        eventstream.NewAuditEventHandler(logger, retry.AuditPolicy()),
//	    ),
//	)
//
//	router.Initialize(ctx)
//	defer router.Shutdown(ctx)
//
// Publish an event after the primary transactional work has committed:
//
//	evt, _ := model.NewProductCreated(model.ProductCreatedPayload{
//	    ProductID: "p1",
//	    Name:      "Headphones",
//	    Price:     199.99,
//	    Category:  "Electronics",
//	}, correlationID)
//
//	if err := publisher.Publish(ctx, model.ChannelProduct, evt); err != nil {
//	    logger.Warnf("event publish skipped: %v", err) // best-effort side effect
//	}
//
// # Event Flow
//
//  1. PUBLISH
//     Producer → Publisher.Publish(channel, event)
//     → JSON envelope → broker fan-out
//
//  2. CONSUME
//     Subscriber receives per channel → parses envelope
//     → Router dispatch by eventType → Handler.Handle(event)
//
//  3. RETRY
//     Handler retries internally with exponential backoff
//     (1s → 2s → 4s per attempt)
//
//  4. DLQ
//     After exhausting retries the event is wrapped in a dead-letter
//     envelope and published to events:dlq. An optional archiver persists
//     DLQ entries to SQL for inspection and statistics.
//
// # Failure Model
//
// Transport failures are recovered by the Subscriber's reconnect loop and
// surfaced only through logs. Serialization failures are isolated to the
// single message. Handler failures are retried and eventually dead-lettered.
// Router initialization and shutdown failures are caught and logged: the
// pub/sub subsystem is best-effort infrastructure, never a hard dependency
// for process liveness.
//
// # Architecture
//
//	┌──────────────────────────────────────┐
//	│          Composition Root            │
//	│   (Router, cmd/eventstream-server)   │
//	└──────────────┬───────────────────────┘
//	               │
//	┌──────────────▼───────────────────────┐
//	│          Delivery Services           │
//	│  (Publisher, Subscriber, Handlers,   │
//	│   DeadLetterer, DeadLetterArchiver)  │
//	└──────────────┬───────────────────────┘
//	               │
//	┌──────────────▼───────────────────────┐
//	│          Broker Adapters             │
//	│     (goredis, memory in-process)     │
//	└──────────────────────────────────────┘
//
// See the examples/ directory for a complete in-process example and
// cmd/eventstream-server for the standalone composition root.
package eventstream
