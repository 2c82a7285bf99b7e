package booking

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const lockShards = 64

// providerLocker serializes the conflict-check-then-insert sequence per
// provider. Locks are sharded by a hash of the provider id: calls for the
// same provider always contend on the same mutex, calls for different
// providers almost never do.
type providerLocker struct {
	shards [lockShards]sync.Mutex
}

func newProviderLocker() *providerLocker {
	return &providerLocker{}
}

func (l *providerLocker) lock(providerID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(providerID[:])
	return &l.shards[h.Sum32()%lockShards]
}
