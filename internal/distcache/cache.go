// Package distcache memoizes pairwise sequence distances.
//
// The cache is sharded; each shard has its own lock, so concurrent readers and
// writers on different shards never contend. Entries are never evicted.
package distcache

import (
	"encoding/binary"
	"sync"

	"github.com/twmb/murmur3"

	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

const shardCount = 64

// Key is an unordered pair of sequence handles, stored smaller first
type Key struct {
	Lo sequence.Handle
	Hi sequence.Handle
}

// MakeKey canonicalizes the pair (a, b)
func MakeKey(a, b sequence.Handle) Key {
	if a > b {
		a, b = b, a
	}
	return Key{Lo: a, Hi: b}
}

type shard struct {
	lock    sync.RWMutex
	entries map[Key]uint64
}

// Cache maps unordered sequence pairs to distances
type Cache struct {
	shards [shardCount]shard
}

// New creates an empty cache
func New() *Cache {
	c := &Cache{}
	for i := range c.shards {
		c.shards[i].entries = make(map[Key]uint64)
	}
	return c
}

func (c *Cache) shardFor(k Key) *shard {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(k.Lo))
	binary.LittleEndian.PutUint32(buf[4:], uint32(k.Hi))
	return &c.shards[murmur3.Sum32(buf[:])%shardCount]
}

// Get returns the cached distance between a and b
func (c *Cache) Get(a, b sequence.Handle) (uint64, bool) {
	k := MakeKey(a, b)
	s := c.shardFor(k)

	s.lock.RLock()
	defer s.lock.RUnlock()

	d, ok := s.entries[k]
	return d, ok
}

// Put stores the distance between a and b. Racing writers store equal values,
// so the last write wins.
func (c *Cache) Put(a, b sequence.Handle, d uint64) {
	k := MakeKey(a, b)
	s := c.shardFor(k)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.entries[k] = d
}

// Len returns the number of cached pairs
func (c *Cache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.lock.RLock()
		n += len(s.entries)
		s.lock.RUnlock()
	}
	return n
}

var (
	registry     = make(map[cost.Model]*Cache)
	registryLock sync.Mutex
)

// For returns the process-wide cache for distances computed under m.
// Distances depend on the cost model, so each model gets its own cache.
func For(m cost.Model) *Cache {
	registryLock.Lock()
	defer registryLock.Unlock()

	c, ok := registry[m]
	if !ok {
		c = New()
		registry[m] = c
	}
	return c
}
