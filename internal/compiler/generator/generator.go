// Package generator runs one metadata generation: declaration ingestion, the
// filter pipeline, binary encoding and TypeScript definitions.
package generator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/binary"
	"github.com/conduit-lang/metagen/internal/compiler/cache"
	"github.com/conduit-lang/metagen/internal/compiler/decl"
	"github.com/conduit-lang/metagen/internal/compiler/factory"
	"github.com/conduit-lang/metagen/internal/compiler/filters"
	"github.com/conduit-lang/metagen/internal/compiler/identifier"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
	"github.com/conduit-lang/metagen/internal/compiler/typescript"
	"github.com/conduit-lang/metagen/internal/logger"
)

// Recorder persists the symbols of a finished run
type Recorder interface {
	RecordRun(ctx context.Context, runID uuid.UUID, c *meta.Container) error
}

// Result is the outcome of one generation run
type Result struct {
	RunID       uuid.UUID
	Blob        []byte
	Definitions map[string]string

	// Container is only set when the run was not served from the cache.
	// Cached runs replay the diagnostics of the run that filled the entry.
	Container   *meta.Container
	Diagnostics []errors.CompilerError

	Skipped        int
	MembersRemoved int
	Cached         bool
}

// Generator produces metadata from declaration units
type Generator struct {
	layout     binary.Layout
	collisions *identifier.CollisionTable
	pipeline   *filters.Pipeline
	cache      *cache.BlobCache
	recorder   Recorder
	hasher     *cache.FileHasher
}

// Option configures a Generator
type Option func(*Generator)

// WithLayout sets the primitive widths of the blob
func WithLayout(layout binary.Layout) Option {
	return func(g *Generator) { g.layout = layout }
}

// WithCollisions replaces the default collision table
func WithCollisions(table *identifier.CollisionTable) Option {
	return func(g *Generator) { g.collisions = table }
}

// WithPipeline replaces the default filter pipeline
func WithPipeline(p *filters.Pipeline) Option {
	return func(g *Generator) { g.pipeline = p }
}

// WithCache serves unchanged inputs from bc
func WithCache(bc *cache.BlobCache) Option {
	return func(g *Generator) { g.cache = bc }
}

// WithRecorder records the symbols of every generated container. A
// generator with a recorder never serves runs from the cache, since the
// recorder needs the container; results are still stored.
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// New creates a generator. The layout is validated up front.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		layout:     binary.DefaultLayout(),
		collisions: identifier.DefaultCollisionTable(),
		pipeline:   filters.NewPipeline(),
		hasher:     cache.NewFileHasher(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.layout.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Run generates the metadata of unit. Declarations that cannot be modeled
// are reported in the result's diagnostics; an error means the run itself
// failed and nothing should be written.
func (g *Generator) Run(ctx context.Context, unit *decl.Unit) (*Result, error) {
	runID := uuid.New()
	log := logger.Logger.With("run_id", runID.String())

	key, err := g.cacheKey(unit)
	if err != nil {
		return nil, err
	}
	if res, ok := g.fromCache(key, runID); ok {
		log.Infow("generation served from cache", "key", key)
		return res, nil
	}

	done := logger.Phase("ingest")
	c, diags := factory.New(g.collisions).Build(unit)
	done("metas", c.Len(), "skipped", len(diags))

	stats, err := g.pipeline.Run(c)
	if err != nil {
		return nil, errors.Wrap(err, "filtering metadata")
	}

	s, err := binary.NewSerializer(g.layout)
	if err != nil {
		return nil, err
	}
	done = logger.Phase("encode")
	blob, err := s.Encode(c)
	if err != nil {
		return nil, errors.Wrap(err, "encoding metadata")
	}
	done("bytes", len(blob))

	done = logger.Phase("definitions")
	defs := typescript.Definitions(c)
	done("files", len(defs))

	res := &Result{
		RunID:          runID,
		Blob:           blob,
		Definitions:    defs,
		Container:      c,
		Diagnostics:    diags,
		Skipped:        len(diags),
		MembersRemoved: stats.MembersRemoved,
	}

	if g.recorder != nil {
		if err := g.recorder.RecordRun(ctx, runID, c); err != nil {
			return nil, errors.Wrap(err, "recording symbol index")
		}
	}
	g.store(key, res)

	log.Infow("generation finished",
		"modules", len(c.Modules()),
		"metas", c.Len(),
		"skipped", res.Skipped,
		"members_removed", res.MembersRemoved,
	)
	return res, nil
}

// cacheKey derives the key of unit under the generator's settings. It is
// empty when no cache is configured.
func (g *Generator) cacheKey(unit *decl.Unit) (string, error) {
	if g.cache == nil {
		return "", nil
	}
	data, err := unit.Encode()
	if err != nil {
		return "", errors.Wrap(err, "hashing declaration unit")
	}
	collisions, err := g.collisions.Encode()
	if err != nil {
		return "", err
	}
	return g.hasher.Key(cache.KeyInputs{
		UnitHash:       g.hasher.HashContent(data),
		CollisionsHash: g.hasher.HashContent(collisions),
		FormatVersion:  binary.FormatVersion,
		PointerSize:    g.layout.PointerSize,
		ArrayCountSize: g.layout.ArrayCountSize,
	}), nil
}

func (g *Generator) fromCache(key string, runID uuid.UUID) (*Result, bool) {
	if key == "" || g.recorder != nil {
		return nil, false
	}
	entry, ok, err := g.cache.Get(key)
	if err != nil {
		logger.Warnw("ignoring unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &Result{
		RunID:       runID,
		Blob:        entry.Blob,
		Definitions: entry.Definitions,
		Diagnostics: entry.Diagnostics,
		Skipped:     entry.Skipped,
		Cached:      true,
	}, true
}

func (g *Generator) store(key string, res *Result) {
	if key == "" {
		return
	}
	err := g.cache.Put(key, &cache.Entry{
		RunID:       res.RunID.String(),
		Blob:        res.Blob,
		Definitions: res.Definitions,
		Skipped:     res.Skipped,
		Diagnostics: res.Diagnostics,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		logger.Warnw("failed to cache generation result", "key", key, "error", err)
	}
}
