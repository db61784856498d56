package decl

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/conduit-lang/metagen/compiler/errors"
)

type declIndex struct {
	byID     map[string]*Decl
	files    map[string]string
	prefixes []Header // directory headers, longest path first
}

// Parse decodes a declaration unit. Gzip-compressed input is detected by its
// magic bytes.
func Parse(data []byte) (*Unit, error) {
	if len(data) == 0 {
		return nil, errors.New("declaration unit is empty")
	}
	if isGzip(data) {
		plain, err := decompress(data)
		if err != nil {
			return nil, err
		}
		data = plain
	}

	var unit Unit
	if err := json.Unmarshal(data, &unit); err != nil {
		return nil, errors.Wrap(err, "failed to decode declaration unit")
	}
	if err := unit.Reindex(); err != nil {
		return nil, err
	}
	return &unit, nil
}

// NewUnit builds an indexed unit from already decoded parts
func NewUnit(headers []Header, decls ...*Decl) (*Unit, error) {
	unit := &Unit{Headers: headers, Decls: decls}
	if err := unit.Reindex(); err != nil {
		return nil, err
	}
	return unit, nil
}

// Load reads and parses the declaration unit at path
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read declaration unit %s", path)
	}
	unit, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return unit, nil
}

// Encode serializes the unit as indented JSON. The output is deterministic.
func (u *Unit) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode declaration unit")
	}
	return data, nil
}

// Reindex rebuilds the lookup tables after Decls or Headers change. Ids must
// be unique across the unit, nested members included.
func (u *Unit) Reindex() error {
	idx := declIndex{
		byID:  make(map[string]*Decl),
		files: make(map[string]string),
	}

	var visit func(d *Decl) error
	visit = func(d *Decl) error {
		if d == nil {
			return nil
		}
		if d.ID != "" {
			if _, dup := idx.byID[d.ID]; dup {
				return errors.Newf("duplicate declaration id %q", d.ID)
			}
			idx.byID[d.ID] = d
		}
		for _, group := range [][]*Decl{d.Fields, d.Constants, d.Methods, d.Properties} {
			for _, child := range group {
				if err := visit(child); err != nil {
					return err
				}
			}
		}
		if err := visit(d.Getter); err != nil {
			return err
		}
		return visit(d.Setter)
	}
	for _, d := range u.Decls {
		if err := visit(d); err != nil {
			return err
		}
	}

	for _, h := range u.Headers {
		if strings.HasSuffix(h.Path, "/") {
			idx.prefixes = append(idx.prefixes, h)
		} else {
			idx.files[h.Path] = h.Module
		}
	}
	sort.SliceStable(idx.prefixes, func(i, j int) bool {
		return len(idx.prefixes[i].Path) > len(idx.prefixes[j].Path)
	})

	u.index = idx
	return nil
}

// Lookup returns the declaration with the given id
func (u *Unit) Lookup(id string) (*Decl, bool) {
	if u.index.byID == nil {
		return nil, false
	}
	d, ok := u.index.byID[id]
	return d, ok
}

// ModuleForFile returns the module owning a header file: an exact header
// match first, then the longest directory prefix.
func (u *Unit) ModuleForFile(file string) (string, bool) {
	if file == "" {
		return "", false
	}
	if m, ok := u.index.files[file]; ok {
		return m, true
	}
	for _, h := range u.index.prefixes {
		if strings.HasPrefix(file, h.Path) {
			return h.Module, true
		}
	}
	return "", false
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gzip reader")
	}
	defer reader.Close()

	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress declaration unit")
	}
	return plain, nil
}
