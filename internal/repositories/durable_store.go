package repository

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
)

const (
	PartitionProducts           = "products"
	PartitionProductImages      = "product_images"
	PartitionPreloadImages      = "preload_images"
	PartitionCartItems          = "cart_items"
	PartitionSearchResults      = "search_results"
	PartitionProductsByCategory = "productsByCategory"
	PartitionPopularSearches    = "popular_searches"
	PartitionCategories         = "categories"
	PartitionCategoriesMinimal  = "categories_minimal"
)

type migration struct {
	version    int
	partitions []string
}

// Migrations only ever add partitions. Existing partitions are never dropped
// or rekeyed, so data written under an older version stays readable.
var migrations = []migration{
	{version: 1, partitions: []string{PartitionProducts}},
	{version: 2, partitions: []string{PartitionProductImages}},
	{version: 3, partitions: []string{PartitionPreloadImages}},
	{version: 4, partitions: []string{PartitionCartItems, PartitionSearchResults}},
	{version: 5, partitions: []string{PartitionProductsByCategory}},
	{version: 6, partitions: []string{PartitionPopularSearches}},
	{version: 7, partitions: []string{PartitionCategories, PartitionCategoriesMinimal}},
}

// SchemaVersion is the latest migration version.
var SchemaVersion = migrations[len(migrations)-1].version

// Partitions lists every known partition in the order it was introduced.
func Partitions() []string {
	var names []string
	for _, m := range migrations {
		names = append(names, m.partitions...)
	}

	return names
}

func isKnownPartition(name string) bool {
	return slices.Contains(Partitions(), name)
}

func checkPartition(name string) error {
	if !isKnownPartition(name) {
		return appErrors.BadRequestError("Unknown partition").WithDetail(name)
	}

	return nil
}

// Entry is a stored payload plus its write metadata.
type Entry struct {
	Partition string
	Key       string
	Payload   json.RawMessage
	CachedAt  time.Time
	Version   int64
}

func (e *Entry) Decode(dest any) error {
	return json.Unmarshal(e.Payload, dest)
}

type Record struct {
	Partition string
	Key       string
	Value     any
}

// DurableStore is the long-lived, partitioned tier. Entries older than the
// store's expiration are reported absent and deleted when read.
type DurableStore interface {
	Put(ctx context.Context, partition, key string, value any) (int64, error)
	PutBatch(ctx context.Context, records []Record) ([]int64, error)
	Get(ctx context.Context, partition, key string) (*Entry, error)
	List(ctx context.Context, partition, keyPrefix string) ([]Entry, error)
	Delete(ctx context.Context, partition, key string) error
	ReplacePrefix(ctx context.Context, partition, keyPrefix string, records []Record) error
	Clear(ctx context.Context, partition string) error
	ClearAll(ctx context.Context) error
	ClearExpired(ctx context.Context, partition string) (int64, error)
	Close() error
}

type storeOptions struct {
	now func() time.Time
}

type Option func(*storeOptions)

// WithClock overrides the time source used for stamping and expiry.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		o.now = now
	}
}

func newStoreOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

type encodedRecord struct {
	Record
	payload []byte
}

// encodeRecords validates and serializes every record up front so a bad
// value never leaves a half-written batch.
func encodeRecords(records []Record) ([]encodedRecord, error) {
	encoded := make([]encodedRecord, 0, len(records))

	for _, r := range records {
		if err := checkPartition(r.Partition); err != nil {
			return nil, err
		}

		data, err := json.Marshal(r.Value)
		if err != nil {
			return nil, appErrors.SerializationError("Value is not serializable").
				WithDetail(r.Partition + "/" + r.Key).
				WithError(err)
		}

		encoded = append(encoded, encodedRecord{Record: r, payload: data})
	}

	return encoded, nil
}

func isExpired(cachedAt, now time.Time, expiration time.Duration) bool {
	return now.Sub(cachedAt) > expiration
}
