package repository

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local DurableStore with the same expiry and
// versioning rules as the postgres driver.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]Entry
	expiration time.Duration
	now        func() time.Time
}

func NewMemoryStore(expiration time.Duration, opts ...Option) *MemoryStore {
	o := newStoreOptions(opts)

	partitions := make(map[string]map[string]Entry)
	for _, name := range Partitions() {
		partitions[name] = make(map[string]Entry)
	}

	return &MemoryStore{partitions: partitions, expiration: expiration, now: o.now}
}

func (s *MemoryStore) Put(ctx context.Context, partition, key string, value any) (int64, error) {
	versions, err := s.PutBatch(ctx, []Record{{Partition: partition, Key: key, Value: value}})
	if err != nil {
		return 0, err
	}

	return versions[0], nil
}

func (s *MemoryStore) PutBatch(_ context.Context, records []Record) ([]int64, error) {
	encoded, err := encodeRecords(records)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(encoded), nil
}

// write must be called with mu held.
func (s *MemoryStore) write(records []encodedRecord) []int64 {
	now := s.now()
	versions := make([]int64, 0, len(records))

	for _, r := range records {
		entries := s.partitions[r.Partition]
		version := entries[r.Key].Version + 1

		entries[r.Key] = Entry{
			Partition: r.Partition,
			Key:       r.Key,
			Payload:   r.payload,
			CachedAt:  now,
			Version:   version,
		}
		versions = append(versions, version)
	}

	return versions
}

func (s *MemoryStore) Get(_ context.Context, partition, key string) (*Entry, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.partitions[partition][key]
	if !ok {
		return nil, nil
	}

	if isExpired(entry.CachedAt, s.now(), s.expiration) {
		delete(s.partitions[partition], key)
		return nil, nil
	}

	return &entry, nil
}

func (s *MemoryStore) List(_ context.Context, partition, keyPrefix string) ([]Entry, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entries := s.partitions[partition]
	var result []Entry

	for _, key := range slices.Sorted(maps.Keys(entries)) {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}

		entry := entries[key]
		if isExpired(entry.CachedAt, now, s.expiration) {
			delete(entries, key)
			continue
		}

		result = append(result, entry)
	}

	return result, nil
}

func (s *MemoryStore) Delete(_ context.Context, partition, key string) error {
	if err := checkPartition(partition); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.partitions[partition], key)

	return nil
}

func (s *MemoryStore) ReplacePrefix(_ context.Context, partition, keyPrefix string, records []Record) error {
	if err := checkPartition(partition); err != nil {
		return err
	}

	encoded, err := encodeRecords(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.partitions[partition]
	for key := range entries {
		if strings.HasPrefix(key, keyPrefix) {
			delete(entries, key)
		}
	}

	s.write(encoded)

	return nil
}

func (s *MemoryStore) Clear(_ context.Context, partition string) error {
	if err := checkPartition(partition); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.partitions[partition])

	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entries := range s.partitions {
		clear(entries)
	}

	return nil
}

func (s *MemoryStore) ClearExpired(_ context.Context, partition string) (int64, error) {
	if err := checkPartition(partition); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64

	for key, entry := range s.partitions[partition] {
		if isExpired(entry.CachedAt, now, s.expiration) {
			delete(s.partitions[partition], key)
			removed++
		}
	}

	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
