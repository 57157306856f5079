package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// SeenItemRepository is the durable set of already processed item links.
// Ids are never removed. All methods are safe for concurrent use.
type SeenItemRepository interface {
	Has(id string) bool
	// Add marks id as seen and reports whether it was new.
	Add(id string) bool
	Len() int
	// Flush persists the set.
	Flush(ctx context.Context) error
}

// seenSet is the in-memory membership index shared by the backends.
type seenSet struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	pending []string
}

func newSeenSet(ids []string) *seenSet {
	s := &seenSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *seenSet) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *seenSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	s.pending = append(s.pending, id)
	return true
}

func (s *seenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *seenSet) snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *seenSet) takePending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

func (s *seenSet) restorePending(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	restored := make([]string, 0, len(ids)+len(s.pending))
	restored = append(restored, ids...)
	s.pending = append(restored, s.pending...)
}

type fileSeenItemRepository struct {
	*seenSet
	path    string
	logger  *logger.Logger
	flushMu sync.Mutex
}

// NewFileSeenItemRepository loads the ledger from a JSON array file. A missing or
// corrupt file yields an empty ledger.
func NewFileSeenItemRepository(path string, log *logger.Logger) SeenItemRepository {
	var ids []string
	found, err := readJSON(path, &ids)
	if err != nil {
		log.Error("Seen ledger unreadable, starting empty", logger.KindField(logger.KindStorage), logger.ErrorField(err), logger.StringField("path", path))
		metrics.IncStorageError("ledger")
		ids = nil
	} else if found {
		log.Info("Seen ledger loaded", logger.IntField("count", len(ids)), logger.StringField("path", path))
	}
	return &fileSeenItemRepository{seenSet: newSeenSet(ids), path: path, logger: log}
}

// Flush rewrites the whole file.
func (r *fileSeenItemRepository) Flush(_ context.Context) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()
	r.takePending()
	if err := writeJSONAtomic(r.path, r.snapshot()); err != nil {
		return fmt.Errorf("failed to flush seen ledger: %w", err)
	}
	return nil
}

type redisSeenItemRepository struct {
	*seenSet
	client  redis.Cmdable
	key     string
	logger  *logger.Logger
	flushMu sync.Mutex
}

// NewRedisSeenItemRepository loads the ledger from a Redis set. A read failure yields an empty ledger.
func NewRedisSeenItemRepository(ctx context.Context, client redis.Cmdable, key string, log *logger.Logger) SeenItemRepository {
	ids, err := client.SMembers(ctx, key).Result()
	if err != nil {
		log.Error("Seen ledger unreadable, starting empty", logger.KindField(logger.KindStorage), logger.ErrorField(err), logger.StringField("key", key))
		metrics.IncStorageError("ledger")
		ids = nil
	} else {
		log.Info("Seen ledger loaded", logger.IntField("count", len(ids)), logger.StringField("key", key))
	}
	return &redisSeenItemRepository{seenSet: newSeenSet(ids), client: client, key: key, logger: log}
}

const redisFlushBatch = 500

// Flush adds the ids seen since the last successful flush. Ids that fail to
// persist are retried on the next flush.
func (r *redisSeenItemRepository) Flush(ctx context.Context) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	pending := r.takePending()
	for start := 0; start < len(pending); start += redisFlushBatch {
		end := start + redisFlushBatch
		if end > len(pending) {
			end = len(pending)
		}
		members := make([]interface{}, 0, end-start)
		for _, id := range pending[start:end] {
			members = append(members, id)
		}
		if err := r.client.SAdd(ctx, r.key, members...).Err(); err != nil {
			r.restorePending(pending[start:])
			return fmt.Errorf("failed to flush seen ledger: %w", err)
		}
	}
	return nil
}
