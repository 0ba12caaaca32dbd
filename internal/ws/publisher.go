package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
)

const authEventsChannel = "auth_events"

// AuthEventPublisher pushes auth events onto the redis channel every
// instance's hub listens on, so a login on one node reaches sockets held by
// another.
type AuthEventPublisher struct {
	rdb redis.UniversalClient
}

func NewAuthEventPublisher(rdb redis.UniversalClient) *AuthEventPublisher {
	return &AuthEventPublisher{rdb: rdb}
}

func (p *AuthEventPublisher) Publish(ctx context.Context, ev *domain.UserEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, authEventsChannel, payload).Err()
}
