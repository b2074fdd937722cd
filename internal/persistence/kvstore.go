package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/phenobarbital/ai-parrot-sub006/internal/flow"
)

// kvRowModel is the single table every flow is persisted into, keyed by
// "parrot:flow:<name>", grounded on the teacher's BunStore/InitSchema
// pattern but collapsed from one table per aggregate into one table of
// opaque JSON blobs, since a Flow Definition is a single document rather
// than a multi-entity aggregate.
type kvRowModel struct {
	bun.BaseModel `bun:"table:parrot_kv,alias:kv"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// KVStore persists Flow Definitions under a "parrot:flow:<name>" key.
type KVStore struct {
	db *bun.DB
}

// OpenKVStore opens a bun-backed KVStore. DSNs starting with "postgres://"
// or "postgresql://" select pgdialect/pgdriver; everything else
// (including an empty DSN, which becomes ":memory:") opens an embedded
// sqlite database via sqliteshim/sqlitedialect.
func OpenKVStore(dsn string) (*KVStore, error) {
	var sqldb *sql.DB
	var dialect bun.Dialect

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		dialect = pgdialect.New()
	default:
		path := dsn
		if path == "" {
			path = ":memory:"
		}
		conn, err := sql.Open(sqliteshim.ShimName, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite kv store: %w", err)
		}
		sqldb = conn
		dialect = sqlitedialect.New()
	}

	db := bun.NewDB(sqldb, dialect)
	return &KVStore{db: db}, nil
}

// InitSchema creates the kv table if it does not already exist.
func (s *KVStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*kvRowModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

func flowKey(name string) string { return "parrot:flow:" + name }

// Save upserts def under its flow name.
func (s *KVStore) Save(ctx context.Context, def *flow.Definition) error {
	data, err := def.SaveJSON()
	if err != nil {
		return fmt.Errorf("marshal flow %s: %w", def.Flow, err)
	}
	row := &kvRowModel{Key: flowKey(def.Flow), Value: string(data), UpdatedAt: time.Now()}
	_, err = s.db.NewInsert().Model(row).On("CONFLICT (key) DO UPDATE").Exec(ctx)
	return err
}

// Load retrieves and validates the Flow Definition stored under name.
func (s *KVStore) Load(ctx context.Context, name string) (*flow.Definition, error) {
	row := new(kvRowModel)
	err := s.db.NewSelect().Model(row).Where("key = ?", flowKey(name)).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load flow %s: %w", name, err)
	}
	return flow.LoadJSON([]byte(row.Value))
}

// List returns every stored flow's name.
func (s *KVStore) List(ctx context.Context) ([]string, error) {
	var rows []kvRowModel
	err := s.db.NewSelect().Model(&rows).Where("key LIKE ?", "parrot:flow:%").Scan(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, strings.TrimPrefix(r.Key, "parrot:flow:"))
	}
	return names, nil
}

// Delete removes the flow stored under name.
func (s *KVStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.NewDelete().Model((*kvRowModel)(nil)).Where("key = ?", flowKey(name)).Exec(ctx)
	return err
}

// Close closes the underlying database connection.
func (s *KVStore) Close() error { return s.db.Close() }
