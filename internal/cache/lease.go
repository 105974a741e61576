package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deleting only when the stored token matches keeps a slow holder from
// releasing a lease that already expired and was re-acquired elsewhere.
var releaseLeaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Lease is a time-bounded cross-process mutual-exclusion token. A failed
// acquire means another instance holds it; callers skip their run instead of
// blocking.
type Lease struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

func NewLease(client *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{
		client: client,
		key:    key,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

// Acquire takes the lease if free. Returns false when held elsewhere.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Release frees the lease if this instance still holds it.
func (l *Lease) Release(ctx context.Context) error {
	return releaseLeaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
