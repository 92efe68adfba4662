package prototype

import (
	"sync"

	"github.com/yohamta/donburi"
)

const defaultShardCount = 16

// instanceIndex maps identifiers to the entities spawned from them.
// Shards are picked by the identifier hash so parallel readers of
// different identifiers do not contend.
type instanceIndex[T Identifier] struct {
	shards []indexShard[T]
}

type indexShard[T Identifier] struct {
	mu       sync.RWMutex
	entities map[T][]donburi.Entity
}

func newInstanceIndex[T Identifier](shardCount int) *instanceIndex[T] {
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	idx := &instanceIndex[T]{shards: make([]indexShard[T], shardCount)}
	for i := range idx.shards {
		idx.shards[i].entities = make(map[T][]donburi.Entity)
	}
	return idx
}

func (idx *instanceIndex[T]) shard(id T) *indexShard[T] {
	return &idx.shards[Hash(id)%uint64(len(idx.shards))]
}

func (idx *instanceIndex[T]) add(id T, e donburi.Entity) {
	s := idx.shard(id)
	s.mu.Lock()
	s.entities[id] = append(s.entities[id], e)
	s.mu.Unlock()
}

// live returns the indexed entities of id that alive reports as still
// belonging to id, dropping the rest from the index.
func (idx *instanceIndex[T]) live(id T, alive func(donburi.Entity) bool) []donburi.Entity {
	s := idx.shard(id)

	s.mu.RLock()
	indexed := s.entities[id]
	out := make([]donburi.Entity, 0, len(indexed))
	for _, e := range indexed {
		if alive(e) {
			out = append(out, e)
		}
	}
	stale := len(out) != len(indexed)
	s.mu.RUnlock()

	if stale {
		s.mu.Lock()
		// Another reader may have pruned already; recompute under the write lock.
		kept := s.entities[id][:0]
		for _, e := range s.entities[id] {
			if alive(e) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.entities, id)
		} else {
			s.entities[id] = kept
		}
		s.mu.Unlock()
	}

	return out
}
