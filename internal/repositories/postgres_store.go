package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-cache/internal/utils"
)

const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS store_schema_version (
	id      INT PRIMARY KEY DEFAULT 1,
	version INT NOT NULL
);
INSERT INTO store_schema_version (id, version) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
CREATE TABLE IF NOT EXISTS store_partitions (
	name             TEXT PRIMARY KEY,
	added_in_version INT NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_entries (
	partition TEXT NOT NULL REFERENCES store_partitions (name),
	cache_key TEXT NOT NULL,
	payload   JSONB NOT NULL,
	cached_at TIMESTAMPTZ NOT NULL,
	version   BIGINT NOT NULL DEFAULT 1,
	PRIMARY KEY (partition, cache_key)
);
CREATE INDEX IF NOT EXISTS cache_entries_cached_at_idx ON cache_entries (partition, cached_at);
`

const (
	upsertEntryQuery = `INSERT INTO cache_entries (partition, cache_key, payload, cached_at, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (partition, cache_key) DO UPDATE
		SET payload = EXCLUDED.payload, cached_at = EXCLUDED.cached_at, version = cache_entries.version + 1
		RETURNING version`

	selectEntryQuery = `SELECT payload, cached_at, version FROM cache_entries WHERE partition = $1 AND cache_key = $2`

	listEntriesQuery = `SELECT cache_key, payload, cached_at, version FROM cache_entries
		WHERE partition = $1 AND starts_with(cache_key, $2)
		ORDER BY cache_key`

	deleteEntryQuery         = `DELETE FROM cache_entries WHERE partition = $1 AND cache_key = $2`
	deleteStaleEntryQuery    = `DELETE FROM cache_entries WHERE partition = $1 AND cache_key = $2 AND version = $3`
	deletePrefixQuery        = `DELETE FROM cache_entries WHERE partition = $1 AND starts_with(cache_key, $2)`
	deleteExpiredPrefixQuery = `DELETE FROM cache_entries WHERE partition = $1 AND starts_with(cache_key, $2) AND cached_at < $3`
	deletePartitionQuery     = `DELETE FROM cache_entries WHERE partition = $1`
	deleteAllQuery           = `DELETE FROM cache_entries`
	deleteExpiredQuery       = `DELETE FROM cache_entries WHERE partition = $1 AND cached_at < $2`

	schemaVersionQuery   = `SELECT version FROM store_schema_version WHERE id = 1`
	insertPartitionQuery = `INSERT INTO store_partitions (name, added_in_version) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	setVersionQuery      = `UPDATE store_schema_version SET version = $1 WHERE id = 1`
)

type PostgresStore struct {
	DB         *sql.DB
	expiration time.Duration
	now        func() time.Time
}

func NewPostgresStore(db *sql.DB, expiration time.Duration, opts ...Option) *PostgresStore {
	o := newStoreOptions(opts)

	return &PostgresStore{DB: db, expiration: expiration, now: o.now}
}

// Migrate brings the schema up to SchemaVersion. Each version is applied in
// its own transaction and only adds partitions.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("failed to create store schema: %w", err)
	}

	var current int
	if err := s.DB.QueryRowContext(ctx, schemaVersionQuery).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		slog.Info("Applied store migration",
			slog.Int("version", m.version),
			slog.Any("partitions", m.partitions),
		)
	}

	return nil
}

func (s *PostgresStore) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, name := range m.partitions {
		if _, err := tx.ExecContext(ctx, insertPartitionQuery, name, m.version); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, setVersionQuery, m.version); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) Put(ctx context.Context, partition, key string, value any) (int64, error) {
	versions, err := s.PutBatch(ctx, []Record{{Partition: partition, Key: key, Value: value}})
	if err != nil {
		return 0, err
	}

	return versions[0], nil
}

// PutBatch writes every record in one transaction. Either all are stored or none are.
func (s *PostgresStore) PutBatch(ctx context.Context, records []Record) ([]int64, error) {
	encoded, err := encodeRecords(records)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := s.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	versions, err := s.upsert(dbCtx, tx, encoded)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return versions, nil
}

func (s *PostgresStore) upsert(ctx context.Context, tx *sql.Tx, records []encodedRecord) ([]int64, error) {
	now := s.now()
	versions := make([]int64, 0, len(records))

	for _, r := range records {
		var version int64

		err := tx.QueryRowContext(ctx, upsertEntryQuery, r.Partition, r.Key, string(r.payload), now).Scan(&version)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s/%s: %w", r.Partition, r.Key, err)
		}

		versions = append(versions, version)
	}

	return versions, nil
}

func (s *PostgresStore) Get(ctx context.Context, partition, key string) (*Entry, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	entry := &Entry{Partition: partition, Key: key}
	var payload []byte

	err := s.DB.QueryRowContext(dbCtx, selectEntryQuery, partition, key).Scan(&payload, &entry.CachedAt, &entry.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s/%s: %w", partition, key, err)
	}

	if isExpired(entry.CachedAt, s.now(), s.expiration) {
		// Only the version just read is removed; a concurrent rewrite survives.
		if _, err := s.DB.ExecContext(dbCtx, deleteStaleEntryQuery, partition, key, entry.Version); err != nil {
			slog.Warn("Failed to delete expired entry",
				slog.String("partition", partition),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil
	}

	entry.Payload = payload

	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, partition, keyPrefix string) ([]Entry, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.DB.QueryContext(dbCtx, listEntriesQuery, partition, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", partition, err)
	}
	defer rows.Close()

	now := s.now()
	var entries []Entry
	expired := 0

	for rows.Next() {
		entry := Entry{Partition: partition}
		var payload []byte

		if err := rows.Scan(&entry.Key, &payload, &entry.CachedAt, &entry.Version); err != nil {
			return nil, fmt.Errorf("failed to scan %s entry: %w", partition, err)
		}

		if isExpired(entry.CachedAt, now, s.expiration) {
			expired++
			continue
		}

		entry.Payload = payload
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s entries: %w", partition, err)
	}

	if expired > 0 {
		cutoff := now.Add(-s.expiration)
		if _, err := s.DB.ExecContext(dbCtx, deleteExpiredPrefixQuery, partition, keyPrefix, cutoff); err != nil {
			slog.Warn("Failed to delete expired entries",
				slog.String("partition", partition),
				slog.String("error", err.Error()),
			)
		}
	}

	return entries, nil
}

func (s *PostgresStore) Delete(ctx context.Context, partition, key string) error {
	if err := checkPartition(partition); err != nil {
		return err
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := s.DB.ExecContext(dbCtx, deleteEntryQuery, partition, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", partition, key, err)
	}

	return nil
}

// ReplacePrefix swaps every entry under keyPrefix for records in one transaction.
func (s *PostgresStore) ReplacePrefix(ctx context.Context, partition, keyPrefix string, records []Record) error {
	if err := checkPartition(partition); err != nil {
		return err
	}

	encoded, err := encodeRecords(records)
	if err != nil {
		return err
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := s.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(dbCtx, deletePrefixQuery, partition, keyPrefix); err != nil {
		return fmt.Errorf("failed to clear %s/%s: %w", partition, keyPrefix, err)
	}

	if _, err := s.upsert(dbCtx, tx, encoded); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, partition string) error {
	if err := checkPartition(partition); err != nil {
		return err
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := s.DB.ExecContext(dbCtx, deletePartitionQuery, partition); err != nil {
		return fmt.Errorf("failed to clear %s: %w", partition, err)
	}

	return nil
}

func (s *PostgresStore) ClearAll(ctx context.Context) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := s.DB.ExecContext(dbCtx, deleteAllQuery); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}

	return nil
}

func (s *PostgresStore) ClearExpired(ctx context.Context, partition string) (int64, error) {
	if err := checkPartition(partition); err != nil {
		return 0, err
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := s.DB.ExecContext(dbCtx, deleteExpiredQuery, partition, s.now().Add(-s.expiration))
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired %s: %w", partition, err)
	}

	return result.RowsAffected()
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
