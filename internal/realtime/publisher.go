package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aidosq/jumys-deals/internal/config"
)

// Message is the envelope pushed to the realtime channel for the
// frontend gateway to fan out. Delivery is best effort; the durable
// notification row is the source of truth.
type Message struct {
	Recipient string                 `json:"recipient"`
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
}

type Publisher struct {
	log     zerolog.Logger
	rdb     *goredis.Client
	channel string
}

func NewPublisher(cfg config.RedisConfig, log zerolog.Logger) (*Publisher, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Publisher{
		log:     log.With().Str("component", "realtime").Logger(),
		rdb:     rdb,
		channel: cfg.Channel,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, recipientID uuid.UUID, event string, data map[string]interface{}) error {
	raw, err := json.Marshal(Message{
		Recipient: recipientID.String(),
		Event:     event,
		Data:      data,
	})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, raw).Err()
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}
