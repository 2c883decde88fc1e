// Package events consumes upload-finalized notifications from Kafka and hands
// them to the ingest pipeline. Messages are committed only after the handler
// returns, so a crash mid-processing redelivers the event.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"teamzones/internal/config"
	"teamzones/internal/ingest"
	"teamzones/internal/logging"
)

const defaultRetryDelay = 5 * time.Second

// Handler processes one decoded upload-finalized event.
type Handler func(ctx context.Context, ev ingest.Event) error

// fetcher is the slice of kafka.Reader the consumer loop uses.
type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs the fetch/handle/commit loop against the event topic.
type Consumer struct {
	reader     fetcher
	handler    Handler
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewConsumer connects a reader to the configured brokers and topic.
func NewConsumer(cfg config.Events, handler Handler, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return newConsumer(reader, handler, logger)
}

func newConsumer(reader fetcher, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:     reader,
		handler:    handler,
		logger:     logging.NewComponentLogger(logger, "events"),
		retryDelay: defaultRetryDelay,
	}
}

// Run consumes until the context is canceled or the reader is closed.
// Consumer-group commits are offset watermarks, so committing a later message
// would implicitly commit everything before it; a message whose handler fails
// is therefore retried in place and the loop never fetches past it. Undecodable
// messages are committed and dropped.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var ev ingest.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.logger.Error("dropping undecodable event message",
				logging.Error(err),
				logging.Int64("offset", msg.Offset))
			if err := c.commit(ctx, msg); err != nil {
				return err
			}
			continue
		}

		if err := c.handle(ctx, ev); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := c.commit(ctx, msg); err != nil {
			return err
		}
	}
}

// handle runs the handler, retrying with a fixed delay until it succeeds or
// the context ends.
func (c *Consumer) handle(ctx context.Context, ev ingest.Event) error {
	for {
		err := c.handler(ctx, ev)
		if err == nil {
			return nil
		}
		c.logger.Error("event handling failed, retrying before advancing",
			logging.Error(err),
			logging.String(logging.FieldObjectPath, ev.ObjectPath),
			logging.Duration("retry_in", c.retryDelay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

// Close shuts down the underlying reader, unblocking Run.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
