package etl

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ── Reader ──────────────────────────────────────────────────
// A Reader parses one tabular file into a Table.
// Implementations live in etl/sources/, one file per format.

// ReaderSpec describes a file format and the extensions it claims.
type ReaderSpec struct {
	Type       string   `json:"type"`
	Label      string   `json:"label"`
	Extensions []string `json:"extensions"` // lower-case, with leading dot
}

// Reader is the interface every file format must implement.
type Reader interface {
	// Spec returns metadata about this format.
	Spec() ReaderSpec

	// Read parses the file at path. The returned table is owned by the
	// caller and is not modified afterwards by the reader.
	Read(ctx context.Context, path string) (*Table, error)
}

// ── Reader Registry ────────────────────────────────────────
// Compile-time registration via init() in each reader file.
// The registry is a static extension → reader map; an extension nobody
// registered resolves to "ignore".

var (
	registryMu sync.RWMutex
	registry   = map[string]Reader{}
)

// RegisterReader registers r for every extension in its spec.
// Called from init() in each reader implementation file.
func RegisterReader(r Reader) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, ext := range r.Spec().Extensions {
		registry[strings.ToLower(ext)] = r
	}
}

// ReaderFor resolves the reader for a file name by its extension,
// case-insensitively. ok is false for unrecognized extensions.
func ReaderFor(name string) (Reader, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil, false
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[ext]
	return r, ok
}

// ListReaders returns the specs of all registered readers, sorted by type.
func ListReaders() []ReaderSpec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	seen := make(map[string]bool)
	var specs []ReaderSpec
	for _, r := range registry {
		spec := r.Spec()
		if seen[spec.Type] {
			continue
		}
		seen[spec.Type] = true
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}
