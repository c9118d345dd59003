package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/remote"
)

// Event types published on a pair's sync channel. Both the partner device's
// synchronizer and the local UI stream consume them.
const (
	TypeSessionCreated = "session-created"
	TypeMoveMade       = "move-made"
	TypeYielded        = "yielded"
	TypeCompleted      = "completed"
	TypeExpired        = "expired"
	TypeStateRefreshed = "state-refreshed"
)

type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`
	Origin    string `json:"origin"`
}

type Client struct {
	PairKey string
	Events  chan Event
	Done    chan struct{}
}

// Broker fans change notifications out over the pair's Redis channel. It is
// fire-and-forget on the publish side: delivery failures are logged and
// never block gameplay.
type Broker struct {
	redis   *remote.Client
	clients map[string]map[*Client]bool // pairKey -> set of clients
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *remote.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(pairKey string) *Client {
	client := &Client{
		PairKey: pairKey,
		Events:  make(chan Event, 100),
		Done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[pairKey] == nil {
		b.clients[pairKey] = make(map[*Client]bool)
		go b.subscribeToRedis(pairKey)
	}
	b.clients[pairKey][client] = true
	clientCount := len(b.clients[pairKey])
	b.mu.Unlock()

	log.Debug().
		Str("pairKey", pairKey).
		Int("clientCount", clientCount).
		Msg("event client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.PairKey]; ok {
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.PairKey)
		}

		log.Debug().
			Str("pairKey", client.PairKey).
			Int("clientCount", len(clients)).
			Msg("event client unsubscribed")
	}
}

// Publish notifies both devices of the pair. Errors are the caller's to log;
// nothing here retries.
func (b *Broker) Publish(ctx context.Context, pairKey string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := remote.SyncChannel(pairKey)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(pairKey string) {
	channel := remote.SyncChannel(pairKey)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("pairKey", pairKey).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(pairKey, event)
		}
	}
}

func (b *Broker) broadcast(pairKey string, event Event) {
	b.mu.RLock()
	clients := b.clients[pairKey]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("pairKey", pairKey).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
}

func (b *Broker) ClientCount(pairKey string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[pairKey])
}
