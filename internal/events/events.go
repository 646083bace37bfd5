// Package events publishes pipeline notifications on Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChannelVacanciesLoaded receives one message per committed load.
const ChannelVacanciesLoaded = "EVENT_VACANCIES_LOADED"

// VacanciesLoaded is the payload published after a successful load.
type VacanciesLoaded struct {
	Type      string    `json:"type"`
	Database  string    `json:"database"`
	Employers int       `json:"employers"`
	Vacancies int       `json:"vacancies"`
	Skipped   []string  `json:"skipped"`
	LoadedAt  time.Time `json:"loadedAt"`
}

// Publisher announces pipeline events.
type Publisher interface {
	PublishLoaded(ctx context.Context, ev VacanciesLoaded) error
}

// RedisPublisher publishes events on a Redis channel.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher wraps an already connected client.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// PublishLoaded publishes ev on ChannelVacanciesLoaded.
func (p *RedisPublisher) PublishLoaded(ctx context.Context, ev VacanciesLoaded) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, ChannelVacanciesLoaded, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelVacanciesLoaded, err)
	}
	return nil
}

// Encode marshals ev, filling in the event type.
func Encode(ev VacanciesLoaded) ([]byte, error) {
	ev.Type = ChannelVacanciesLoaded
	if ev.Skipped == nil {
		ev.Skipped = []string{}
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ChannelVacanciesLoaded, err)
	}
	return b, nil
}

// Nop discards events. Used when REDIS_URL is not configured.
type Nop struct{}

// PublishLoaded does nothing.
func (Nop) PublishLoaded(context.Context, VacanciesLoaded) error { return nil }
