// Package cache is a rueidis-backed KV/JSON cache sitting in front of
// the Postgres reload path (C16), adapted from the teacher's
// pkg/redis/client.go (rueidis command-builder idiom) and
// pkg/redis/json.go (sonic marshal/unmarshal helpers), generalized
// from a generic RedisClient interface down to the one operation this
// module actually needs: cache a GraphPayload by fingerprint.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/redis/rueidis"
)

// Options configures the underlying rueidis client.
type Options struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// GraphCache caches serialized GraphPayloads keyed by fingerprint.
type GraphCache struct {
	client rueidis.Client
	ttl    time.Duration
}

// New connects a GraphCache over rueidis.
func New(opts Options, ttl time.Duration) (*GraphCache, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect cache: %v", codegraph.ErrStorageUnavailable, err)
	}
	return &GraphCache{client: client, ttl: ttl}, nil
}

func graphKey(fingerprint string) string {
	return "graph:" + fingerprint
}

// Get returns the cached payload for fingerprint, or ok=false on a
// miss. A cache miss is not an error — the caller falls back to the
// store's reload path.
func (c *GraphCache) Get(ctx context.Context, fingerprint string) (codegraph.GraphPayload, bool, error) {
	cmd := c.client.B().Get().Key(graphKey(fingerprint)).Build()
	result := c.client.Do(ctx, cmd)
	if result.Error() != nil {
		if rueidis.IsRedisNil(result.Error()) {
			return codegraph.GraphPayload{}, false, nil
		}
		return codegraph.GraphPayload{}, false, fmt.Errorf("%w: cache get: %v", codegraph.ErrStorageUnavailable, result.Error())
	}
	raw, err := result.ToString()
	if err != nil {
		return codegraph.GraphPayload{}, false, fmt.Errorf("%w: cache decode: %v", codegraph.ErrStorageUnavailable, err)
	}
	var payload codegraph.GraphPayload
	if err := sonic.Unmarshal([]byte(raw), &payload); err != nil {
		return codegraph.GraphPayload{}, false, fmt.Errorf("%w: cache unmarshal: %v", codegraph.ErrStorageUnavailable, err)
	}
	return payload, true, nil
}

// Set stores payload under fingerprint with the cache's configured
// TTL.
func (c *GraphCache) Set(ctx context.Context, fingerprint string, payload codegraph.GraphPayload) error {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: cache marshal: %v", codegraph.ErrStorageUnavailable, err)
	}
	cmd := c.client.B().Set().Key(graphKey(fingerprint)).Value(string(raw)).ExSeconds(int64(c.ttl.Seconds())).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: cache set: %v", codegraph.ErrStorageUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *GraphCache) Close() {
	c.client.Close()
}
