package flowengine

import (
	"context"

	"github.com/phenobarbital/ai-parrot-sub006/internal/persistence"
)

// LoadDefinitionFile reads and validates a Flow Definition from a JSON file
// (spec §4.6 "load_file").
func LoadDefinitionFile(path string) (*Definition, error) {
	return persistence.LoadFile(path)
}

// SaveDefinitionFile writes a Flow Definition to a JSON file (spec §4.6
// "save_file").
func SaveDefinitionFile(path string, def *Definition) error {
	return persistence.SaveFile(path, def)
}

// Store persists Flow Definitions under a `parrot:flow:<name>` key (spec
// §4.6 "kv_store"), backed by SQLite (the default, including an in-memory
// DSN) or Postgres depending on the DSN scheme.
type Store = persistence.KVStore

// OpenStore opens a Store. An empty dsn opens an in-memory SQLite
// database; a "postgres://" or "postgresql://" DSN opens Postgres;
// anything else is treated as a SQLite file path.
func OpenStore(dsn string) (*Store, error) {
	return persistence.OpenKVStore(dsn)
}

// InitStore ensures the Store's backing schema exists. Call once after
// OpenStore and before the first Save/Load.
func InitStore(ctx context.Context, s *Store) error {
	return s.InitSchema(ctx)
}
