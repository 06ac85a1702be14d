package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer fans messages out to workers by partition, so each partition is
// handled in order by one worker. A failing message is retried with backoff
// and nothing after it in its partition is handled or committed until it
// succeeds or ctx ends.
type Consumer struct {
	r          messageReader
	workers    int
	minBackoff time.Duration
	maxBackoff time.Duration
	log        *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log.With("component", "kafka-consumer", "topic", topic))
}

func newConsumer(r messageReader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, minBackoff: 200 * time.Millisecond, maxBackoff: 30 * time.Second, log: log}
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if err := c.handle(ctx, h, m); err != nil {
					// ctx ended mid-retry; leave the rest uncommitted
					return
				}
			}
		}(queues[i])
	}
	stop := func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case queues[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// handle runs h until it succeeds, then commits m. It only gives up when ctx ends.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) error {
	backoff := c.minBackoff
	for {
		err := h(ctx, m)
		if err == nil {
			break
		}
		c.log.Error("handler failed, retrying", "partition", m.Partition, "offset", m.Offset,
			"backoff", backoff, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
	if err := c.r.CommitMessages(ctx, m); err != nil {
		// a later commit on this partition covers this offset
		c.log.Warn("commit failed", "partition", m.Partition, "offset", m.Offset, "err", err)
	}
	return nil
}
