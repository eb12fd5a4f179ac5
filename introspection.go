package yamldb

import (
	"sort"

	"github.com/aretw0/introspection"
)

// DatabaseState exposes internal state for observability.
type DatabaseState struct {
	Root        string   `json:"root"`
	IndexPath   string   `json:"index_path"`
	Collections []string `json:"collections"`
}

// State implements introspection.Introspectable.
func (db *Database) State() any {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	sort.Strings(names)

	return DatabaseState{
		Root:        db.root,
		IndexPath:   db.index.Path,
		Collections: names,
	}
}

// ComponentType implements introspection.Component.
func (db *Database) ComponentType() string {
	return "database"
}

var _ introspection.Introspectable = (*Database)(nil)
var _ introspection.Component = (*Database)(nil)
