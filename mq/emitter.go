// Package mq carries "proposal saved" events between server instances.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"voyage/rdx"
)

const SavedChannel = "proposal-saved"

// SavedEvent is published after a proposal write succeeds.
type SavedEvent struct {
	DocumentID string    `json:"documentId"`
	UserID     string    `json:"userId"`
	SavedAt    time.Time `json:"savedAt"`
}

// Publisher emits save events.
type Publisher interface {
	PublishSaved(ctx context.Context, ev SavedEvent) error
}

// Emitter publishes events on redis.
type Emitter struct {
	Conn *redis.Client
}

func (e *Emitter) PublishSaved(ctx context.Context, ev SavedEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal saved event: %w", err)
	}
	if err := e.Conn.Publish(ctx, SavedChannel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", SavedChannel, err)
	}
	log.Debug().Str("documentId", ev.DocumentID).Msg("saved event published")
	return nil
}

// Local applies events in-process. Used when no redis is configured.
type Local struct {
	Cache rdx.Cache
}

func (l Local) PublishSaved(ctx context.Context, ev SavedEvent) error {
	return l.Cache.Invalidate(ctx, ev.DocumentID)
}

// Handle applies one raw event payload to the cache.
func Handle(ctx context.Context, cache rdx.Cache, payload string) error {
	var ev SavedEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return fmt.Errorf("parse saved event: %w", err)
	}
	if ev.DocumentID == "" {
		return fmt.Errorf("saved event without documentId")
	}
	return cache.Invalidate(ctx, ev.DocumentID)
}

// StartInvalidationWorker drops cached exports of every saved document until
// ctx is cancelled.
func StartInvalidationWorker(ctx context.Context, conn *redis.Client, cache rdx.Cache) {
	sub := conn.Subscribe(ctx, SavedChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Info().Str("channel", SavedChannel).Msg("invalidation worker listening")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := Handle(ctx, cache, msg.Payload); err != nil {
				log.Error().Err(err).Msg("invalidation worker")
			}
		}
	}
}
