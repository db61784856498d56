package identifier

import (
	"bytes"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
)

// CollisionTable lists, per declaration kind, original names known to clash
// with another declaration once flattened into one namespace. A listed
// declaration gets a kind suffix appended to its canonical name. Tables are
// immutable once built.
type CollisionTable struct {
	names map[decl.Kind]map[string]struct{}
}

// NewCollisionTable builds a table from kind → original names
func NewCollisionTable(entries map[decl.Kind][]string) *CollisionTable {
	t := &CollisionTable{names: make(map[decl.Kind]map[string]struct{}, len(entries))}
	for kind, names := range entries {
		t.add(kind, names)
	}
	return t
}

func (t *CollisionTable) add(kind decl.Kind, names []string) {
	set, ok := t.names[kind]
	if !ok {
		set = make(map[string]struct{}, len(names))
		t.names[kind] = set
	}
	for _, n := range names {
		set[n] = struct{}{}
	}
}

// DefaultCollisionTable returns the names known to collide in the iOS SDK
func DefaultCollisionTable() *CollisionTable {
	return NewCollisionTable(map[decl.Kind][]string{
		decl.KindRecord:   {"kevent", "flock", "sigvec", "sigaction", "wait"},
		decl.KindVar:      {"timezone"},
		decl.KindProtocol: {"NSObject", "AVVideoCompositionInstruction", "OS_dispatch_data"},
	})
}

// Contains reports whether name is listed for kind
func (t *CollisionTable) Contains(kind decl.Kind, name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.names[kind][name]
	return ok
}

// Merge returns a new table holding the entries of both tables
func (t *CollisionTable) Merge(other *CollisionTable) *CollisionTable {
	merged := NewCollisionTable(nil)
	for _, src := range []*CollisionTable{t, other} {
		if src == nil {
			continue
		}
		for kind, set := range src.names {
			for n := range set {
				merged.add(kind, []string{n})
			}
		}
	}
	return merged
}

// Names returns the sorted names listed for kind
func (t *CollisionTable) Names(kind decl.Kind) []string {
	set := t.names[kind]
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// collisionFile is the TOML layout of a collision table file:
//
//	inherit_defaults = true
//
//	[names]
//	record = ["flock", "sigaction"]
//	var = ["timezone"]
type collisionFile struct {
	InheritDefaults *bool               `toml:"inherit_defaults"`
	Names           map[string][]string `toml:"names"`
}

var knownKinds = map[decl.Kind]bool{
	decl.KindFunction:     true,
	decl.KindRecord:       true,
	decl.KindEnum:         true,
	decl.KindEnumConstant: true,
	decl.KindVar:          true,
	decl.KindInterface:    true,
	decl.KindProtocol:     true,
	decl.KindCategory:     true,
	decl.KindMethod:       true,
	decl.KindProperty:     true,
	decl.KindField:        true,
}

// ParseCollisionTable decodes a TOML collision table. Unless the file sets
// inherit_defaults = false, the result also holds DefaultCollisionTable.
func ParseCollisionTable(data []byte) (*CollisionTable, error) {
	var file collisionFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse collision table")
	}

	entries := make(map[decl.Kind][]string, len(file.Names))
	for kind, names := range file.Names {
		k := decl.Kind(kind)
		if !knownKinds[k] {
			return nil, errors.Newf("collision table: unknown declaration kind %q", kind)
		}
		entries[k] = names
	}

	table := NewCollisionTable(entries)
	if file.InheritDefaults == nil || *file.InheritDefaults {
		table = DefaultCollisionTable().Merge(table)
	}
	return table, nil
}

// LoadCollisionTable reads a TOML collision table from path
func LoadCollisionTable(path string) (*CollisionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read collision table %s", path)
	}
	table, err := ParseCollisionTable(data)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return table, nil
}

// Encode writes the table as a self-contained TOML collision file. Names are
// sorted, so equal tables encode to equal bytes.
func (t *CollisionTable) Encode() ([]byte, error) {
	inherit := false
	file := collisionFile{InheritDefaults: &inherit, Names: map[string][]string{}}
	if t != nil {
		for kind := range t.names {
			if names := t.Names(kind); len(names) > 0 {
				file.Names[string(kind)] = names
			}
		}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return nil, errors.Wrap(err, "failed to encode collision table")
	}
	return buf.Bytes(), nil
}
