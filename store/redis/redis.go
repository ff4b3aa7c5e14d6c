// Package redis provides a basicfit.Store backed by a Redis hash, for
// installations whose preferences live on a shared host.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/infodancer/basicfit"
	bferrors "github.com/infodancer/basicfit/errors"
)

// ErrRedisUnavailable wraps transport failures talking to Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	defaultAddr   = "localhost:6379"
	defaultPrefix = "bf"
)

func init() {
	basicfit.RegisterStore("redis", func(config basicfit.StoreConfig) (basicfit.Store, error) {
		opts := &goredis.Options{Addr: defaultAddr}
		if addr := config.Options["addr"]; addr != "" {
			opts.Addr = addr
		}
		opts.Password = config.Options["password"]
		if raw := config.Options["db"]; raw != "" {
			db, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: redis db %q: %v", bferrors.ErrStoreConfigInvalid, raw, err)
			}
			opts.DB = db
		}
		prefix := config.Options["prefix"]
		if prefix == "" {
			prefix = defaultPrefix
		}

		s := NewStore(goredis.NewClient(opts), prefix, config.Namespace)
		s.owned = true
		return s, nil
	})
}

// Store keeps one namespace in the hash <prefix>:<namespace>.
type Store struct {
	redis goredis.UniversalClient
	key   string
	owned bool
}

// NewStore creates a Store over an existing client. The client is not
// closed by Close.
func NewStore(client goredis.UniversalClient, prefix, namespace string) *Store {
	if namespace == "" {
		namespace = basicfit.DefaultNamespace
	}
	return &Store{
		redis: client,
		key:   prefix + ":" + namespace,
	}
}

// Load returns the hash contents. A missing hash is an empty namespace.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	values, err := s.redis.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return values, nil
}

// Apply sends all edits in one MULTI/EXEC block.
func (s *Store) Apply(ctx context.Context, edits ...basicfit.Edit) error {
	if len(edits) == 0 {
		return nil
	}
	_, err := s.redis.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, e := range edits {
			if e.Remove {
				pipe.HDel(ctx, s.key, e.Key)
				continue
			}
			pipe.HSet(ctx, s.key, e.Key, e.Value)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.redis.Close()
}
