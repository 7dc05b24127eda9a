package workqueue

import (
	"encoding/binary"
	"hash/maphash"
	"sync"

	"github.com/spaolacci/murmur3"
)

// registry maps keys to lanes. Keys are spread over independently locked
// shards so that lookups for different keys do not contend, and creating a
// lane only excludes other callers of the same shard.
type registry[K comparable] struct {
	shards []*shard[K]
	seed   maphash.Seed
}

type shard[K comparable] struct {
	mu    sync.RWMutex
	lanes map[K]*lane
}

func newRegistry[K comparable](n int) *registry[K] {
	if n <= 0 {
		n = 1
	}
	r := &registry[K]{
		shards: make([]*shard[K], n),
		seed:   maphash.MakeSeed(),
	}
	for i := range r.shards {
		r.shards[i] = &shard[K]{lanes: make(map[K]*lane)}
	}
	return r
}

// to calculates the shard index for the key.
// Keys that compare equal always map to the same shard.
func (r *registry[K]) to(key K) int {
	if len(r.shards) == 1 {
		return 0
	}
	return int(r.hash(key) % uint32(len(r.shards)))
}

func (r *registry[K]) hash(key K) uint32 {
	var buf [8]byte
	switch k := any(key).(type) {
	case string:
		return sum32([]byte(k))
	case int:
		return sum32(binary.LittleEndian.AppendUint64(buf[:0], uint64(k)))
	case int64:
		return sum32(binary.LittleEndian.AppendUint64(buf[:0], uint64(k)))
	case uint64:
		return sum32(binary.LittleEndian.AppendUint64(buf[:0], k))
	case int32:
		return sum32(binary.LittleEndian.AppendUint32(buf[:0], uint32(k)))
	case uint32:
		return sum32(binary.LittleEndian.AppendUint32(buf[:0], k))
	}
	// maphash agrees with == for every comparable type, including
	// floats where +0 and -0 are the same key.
	return uint32(maphash.Comparable(r.seed, key))
}

// sum32 goes through the streaming hasher, which indexes b as a slice;
// murmur3.Sum32 rebuilds pointers from uintptr and trips checkptr under -race.
func sum32(b []byte) uint32 {
	h := murmur3.New32()
	h.Write(b)
	return h.Sum32()
}

func (r *registry[K]) get(key K) (*lane, bool) {
	s := r.shards[r.to(key)]
	s.mu.RLock()
	l, ok := s.lanes[key]
	s.mu.RUnlock()
	return l, ok
}

// getOrCreate returns the lane for key, calling create under the shard's
// write lock if there is none yet. create runs at most once per key.
func (r *registry[K]) getOrCreate(key K, create func() *lane) (*lane, bool) {
	s := r.shards[r.to(key)]

	s.mu.RLock()
	l, ok := s.lanes[key]
	s.mu.RUnlock()
	if ok {
		return l, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have created it between the two locks
	if l, ok = s.lanes[key]; ok {
		return l, false
	}
	l = create()
	s.lanes[key] = l
	return l, true
}

// each calls fn for every registered key. Shards are visited one at a time.
func (r *registry[K]) each(fn func(K, *lane)) {
	for _, s := range r.shards {
		s.mu.RLock()
		for k, l := range s.lanes {
			fn(k, l)
		}
		s.mu.RUnlock()
	}
}

func (r *registry[K]) len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		n += len(s.lanes)
		s.mu.RUnlock()
	}
	return n
}
