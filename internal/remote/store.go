package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pairplay/sync-server-go/internal/model"
)

// claimTTL bounds how long a creation claim can shadow a session slot.
const claimTTL = 24 * time.Hour

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// Key layout: every session lives under its couple's pair key so both
// devices address the same slots.

func sessionKey(pairKey string, kind model.Kind, id string) string {
	return fmt.Sprintf("session:%s:%s:%s", pairKey, kind, id)
}

func indexKey(pairKey string) string {
	return fmt.Sprintf("sessions:%s", pairKey)
}

func claimKey(pairKey string, kind model.Kind, day string) string {
	return fmt.Sprintf("claim:%s:%s:%s", pairKey, kind, day)
}

// SyncChannel is the pub/sub channel both partners' devices listen on for
// change notifications.
func SyncChannel(pairKey string) string {
	return fmt.Sprintf("sync:%s", pairKey)
}

// Store is the shared realtime-replicated session store. Writes are
// last-writer-wins at whole-snapshot granularity; correctness comes from
// turn ownership and the tie-break rule, not from locking.
type Store struct {
	client *Client
}

func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Write replaces the remote snapshot for the session and indexes it under
// its pair key.
func (s *Store) Write(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.PairKey, session.Kind, session.ID), data, 0)
	pipe.SAdd(ctx, indexKey(session.PairKey), fmt.Sprintf("%s:%s", session.Kind, session.ID))
	_, err = pipe.Exec(ctx)
	return err
}

// Claim performs a conditional create on the session slot for the kind/day.
// It returns false when the partner's device already claimed it, in which
// case the claim value carries the winning session id.
func (s *Store) Claim(ctx context.Context, session *model.Session) (bool, string, error) {
	key := claimKey(session.PairKey, session.Kind, session.Day())
	ok, err := s.client.SetNX(ctx, key, session.ID, claimTTL).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, session.ID, nil
	}
	winner, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return false, "", err
	}
	return false, winner, nil
}

// Find returns one remote snapshot, or nil when absent.
func (s *Store) Find(ctx context.Context, pairKey string, kind model.Kind, id string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(pairKey, kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data, id)
}

// List returns every remote snapshot indexed for the pair. Dangling index
// members (snapshot deleted by tie-break) are pruned as a side effect.
func (s *Store) List(ctx context.Context, pairKey string) ([]model.Session, error) {
	members, err := s.client.SMembers(ctx, indexKey(pairKey)).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]model.Session, 0, len(members))
	for _, member := range members {
		var kind model.Kind
		var id string
		if k, rest, ok := splitMember(member); ok {
			kind, id = k, rest
		} else {
			continue
		}
		session, err := s.Find(ctx, pairKey, kind, id)
		if err != nil {
			return nil, err
		}
		if session == nil {
			s.client.SRem(ctx, indexKey(pairKey), member)
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// FindActive returns the remote sessions of a kind that are still mutable,
// oldest first. Used by the arbiter's waiter poll.
func (s *Store) FindActive(ctx context.Context, pairKey string, kind model.Kind) ([]model.Session, error) {
	all, err := s.List(ctx, pairKey)
	if err != nil {
		return nil, err
	}
	active := make([]model.Session, 0, len(all))
	for _, session := range all {
		if session.Kind == kind && session.Status.Mutable() {
			active = append(active, session)
		}
	}
	return active, nil
}

// Delete removes a discarded session snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, pairKey string, kind model.Kind, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(pairKey, kind, id))
	pipe.SRem(ctx, indexKey(pairKey), fmt.Sprintf("%s:%s", kind, id))
	_, err := pipe.Exec(ctx)
	return err
}

func decode(data []byte, id string) (*model.Session, error) {
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode remote session %s: %w", id, err)
	}
	if err := session.State.Validate(); err != nil {
		return nil, fmt.Errorf("remote session %s: %w", id, err)
	}
	return &session, nil
}

// splitMember parses an index member of the form "{kind}:{id}". Kinds may
// themselves contain a dash but never a colon.
func splitMember(member string) (model.Kind, string, bool) {
	for i := 0; i < len(member); i++ {
		if member[i] == ':' {
			kind := model.Kind(member[:i])
			if kind.Valid() && i+1 < len(member) {
				return kind, member[i+1:], true
			}
			return "", "", false
		}
	}
	return "", "", false
}
