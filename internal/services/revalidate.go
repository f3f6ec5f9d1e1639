package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Invalidator tells the rendering tier which public routes are stale.
type Invalidator interface {
	Invalidate(ctx context.Context, routes ...string) error
}

type RevalidateMessage struct {
	Routes []string  `json:"routes"`
	At     time.Time `json:"at"`
}

type RedisInvalidator struct {
	Client  *redis.Client
	Channel string
}

func (r RedisInvalidator) Invalidate(ctx context.Context, routes ...string) error {
	payload, err := json.Marshal(RevalidateMessage{Routes: routes, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return r.Client.Publish(ctx, r.Channel, payload).Err()
}

type HubInvalidator struct {
	Hub *EventHub
}

func (h HubInvalidator) Invalidate(_ context.Context, routes ...string) error {
	h.Hub.Publish("revalidate", map[string][]string{"routes": routes})
	return nil
}

type LogInvalidator struct {
	Logger zerolog.Logger
}

func (l LogInvalidator) Invalidate(_ context.Context, routes ...string) error {
	l.Logger.Info().Strs("routes", routes).Msg("routes invalidated")
	return nil
}

// MultiInvalidator calls every target and joins their errors.
type MultiInvalidator []Invalidator

func (m MultiInvalidator) Invalidate(ctx context.Context, routes ...string) error {
	var errs []error
	for _, inv := range m {
		if inv == nil {
			continue
		}
		if err := inv.Invalidate(ctx, routes...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
