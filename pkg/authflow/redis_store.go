package authflow

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the state in Redis under a random flow id. The browser
// only carries the flow id; GETDEL makes every state usable exactly once.
type RedisStore struct {
	client redis.UniversalClient
	opts   storeOptions
}

// NewRedisStore returns a RedisStore on client.
// The client should be obtained from pkg/redis.Open.
func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &RedisStore{client: client, opts: o}, nil
}

// Save implements StateStore.
func (s *RedisStore) Save(ctx context.Context, w http.ResponseWriter, provider, state string) error {
	flowID := uuid.NewString()
	if err := s.client.Set(ctx, s.key(provider, flowID), state, s.opts.ttl).Err(); err != nil {
		return err
	}

	http.SetCookie(w, s.opts.cookie(provider, flowID, int(s.opts.ttl.Seconds())))
	return nil
}

// Take implements StateStore.
func (s *RedisStore) Take(ctx context.Context, w http.ResponseWriter, r *http.Request, provider string) (string, error) {
	flowID, err := s.opts.readCookie(r, provider)
	if err != nil {
		return "", err
	}
	s.opts.clearCookie(w, provider)

	if _, err := uuid.Parse(flowID); err != nil {
		return "", ErrInvalidState
	}

	state, err := s.client.GetDel(ctx, s.key(provider, flowID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrStateNotFound
		}
		return "", err
	}
	return state, nil
}

func (s *RedisStore) key(provider, flowID string) string {
	if s.opts.keyPrefix == "" {
		return provider + ":" + flowID
	}
	return s.opts.keyPrefix + ":" + provider + ":" + flowID
}

var _ StateStore = (*RedisStore)(nil)
