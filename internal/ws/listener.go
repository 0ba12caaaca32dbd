package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
)

// ListenAuthEvents bridges the redis channel into the hub until the context
// is cancelled.
func ListenAuthEvents(ctx context.Context, rdb redis.UniversalClient, hub *Hub) {
	sub := rdb.Subscribe(ctx, authEventsChannel)
	defer sub.Close()
	ch := sub.Channel()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev domain.UserEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Println("Error parsing auth event:", err)
				continue
			}
			hub.Broadcast(Message{Type: ev.Type, UserID: ev.UserID, Data: ev})
		case <-ctx.Done():
			return
		}
	}
}
