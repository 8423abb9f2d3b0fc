// Package subscriber consumes inventory events from JetStream and writes them to the audit log.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "inventory-audit"

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Term() error
}

// Start creates the durable consumer and runs cfg.Workers workers until ctx is cancelled.
// onReady, when not nil, is called once the consumer exists.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, logger *slog.Logger, onReady func()) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	logger.Info("Consumer ready",
		slog.String("stream", subscriberCfg.Stream),
		slog.String("consumer", subscriberCfg.Consumer),
		slog.Int("workers", subscriberCfg.Workers))
	if onReady != nil {
		onReady()
	}

	tracer := otel.Tracer(instrumentationName)
	g, gCtx := errgroup.WithContext(ctx)
	for range subscriberCfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg, tracer, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles them one by one.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, tracer trace.Tracer, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			if !errors.Is(err, nats.ErrTimeout) {
				logger.Error("failed to fetch messages", "error", err)
				sleep(ctx, cfg.Interval)
			}
			continue
		}
		for msg := range batch.Messages() {
			handleMessage(ctx, msg, tracer, logger)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.Error("batch ended with error", "error", err)
			sleep(ctx, cfg.Interval)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// handleMessage writes one audit entry per event.
// Payloads that cannot be decoded are terminated so the server never redelivers them.
func handleMessage(ctx context.Context, msg ackableMsg, tracer trace.Tracer, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	var event events.ProductEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	// continue the trace of the request that changed the product
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(event.Carrier))
	ctx, span := tracer.Start(ctx, "audit "+string(event.Type), trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Subject()),
		attribute.Int64("inventory.product_id", event.ProductID),
	)

	logger.InfoContext(ctx, "inventory event",
		slog.String("subject", msg.Subject()),
		slog.String("event_id", event.EventID),
		slog.String("type", string(event.Type)),
		slog.Int64("product_id", event.ProductID),
		slog.String("name", event.Name),
		slog.String("category", event.Category),
		slog.Float64("price", event.Price),
		slog.Int("quantity", event.Quantity),
		slog.Bool("in_stock", event.InStock),
		slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))

	if err := msg.Ack(); err != nil {
		logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}
