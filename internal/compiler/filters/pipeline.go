package filters

import (
	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
	"github.com/conduit-lang/metagen/internal/logger"
)

// Pipeline runs the filters once, in a fixed order: exceptional corrections
// first, then cross-hierarchy member deduplication.
type Pipeline struct {
	Exceptions Exceptions
}

// NewPipeline creates a pipeline with the default exceptions
func NewPipeline() *Pipeline {
	return &Pipeline{Exceptions: DefaultExceptions()}
}

// Stats reports what a pipeline run changed
type Stats struct {
	MembersRemoved int
}

// Run filters c in place. The container is already validated, so a panic in
// a filter is a broken invariant and is returned as an assertion failure.
func (p *Pipeline) Run(c *meta.Container) (stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.AssertionFailedf("filter pipeline: %v", r)
		}
	}()

	done := logger.Phase("filter")
	HandleExceptionalMetas(c, p.Exceptions)
	stats.MembersRemoved = RemoveDuplicateMembers(c)
	done("members_removed", stats.MembersRemoved)
	return stats, nil
}
