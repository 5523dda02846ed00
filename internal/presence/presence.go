package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineKeyPrefix   = "presence:online:"   // presence:online:{uid} -> "1", expires when heartbeats stop
	lastSeenKeyPrefix = "presence:lastseen:" // presence:lastseen:{uid} -> RFC3339 timestamp
	onlineTTL         = 2 * time.Minute      // a missed heartbeat window marks the user offline
)

// Presence is a user's best-effort online state.
type Presence struct {
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// Store keeps online/last-seen state in Redis. This is a side-channel:
// callers log failures and continue, they never fail a request over it.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Heartbeat marks the user online for the TTL window and refreshes last-seen.
func (s *Store) Heartbeat(ctx context.Context, uid string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, onlineKeyPrefix+uid, "1", onlineTTL)
	pipe.Set(ctx, lastSeenKeyPrefix+uid, now, 0)
	_, err := pipe.Exec(ctx)
	return err
}

// SetOffline clears the online flag immediately (sign-out, page unload).
func (s *Store) SetOffline(ctx context.Context, uid string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	pipe := s.client.Pipeline()
	pipe.Del(ctx, onlineKeyPrefix+uid)
	pipe.Set(ctx, lastSeenKeyPrefix+uid, now, 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns a user's presence. A user with no recorded state reads as
// offline with no last-seen, not as an error.
func (s *Store) Get(ctx context.Context, uid string) (Presence, error) {
	var p Presence

	online, err := s.client.Exists(ctx, onlineKeyPrefix+uid).Result()
	if err != nil {
		return p, err
	}
	p.Online = online > 0

	raw, err := s.client.Get(ctx, lastSeenKeyPrefix+uid).Result()
	if err == redis.Nil {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		p.LastSeen = &ts
	}
	return p, nil
}
