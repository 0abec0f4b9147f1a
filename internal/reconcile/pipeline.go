package reconcile

import (
	"context"

	"github.com/asgdns/reconciler/internal/core/domain"
)

// Stage is one step of the Scaling-Group Lifecycle Pipeline. A non-nil
// error aborts the chain (§4.1); no stage may silently drop the context.
type Stage func(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) error

// Pipeline is an ordered slice of Stage functions sharing a
// ScalingGroupLifecycleContext. This replaces the source's
// chain-of-responsibility `>>` operator with a plain slice, per §9's
// redesign note: "no linked-list or dynamic dispatch is required."
type Pipeline struct {
	stages []namedStage
}

type namedStage struct {
	name string
	run  Stage
}

// NewPipeline returns an empty pipeline. Stages are added with Use and
// Run executes them strictly in the order they were added (§5's ordering
// guarantee (a)).
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Use appends a named stage to the pipeline.
func (p *Pipeline) Use(name string, stage Stage) *Pipeline {
	p.stages = append(p.stages, namedStage{name: name, run: stage})
	return p
}

// Run executes every stage in order against sg, stopping at the first
// error. It returns the name of the stage that aborted (empty on success)
// so callers can attribute metrics/logs to the failing stage.
func (p *Pipeline) Run(ctx context.Context, sg *domain.ScalingGroupLifecycleContext) (failedStage string, err error) {
	for _, s := range p.stages {
		if err := s.run(ctx, sg); err != nil {
			return s.name, err
		}
	}
	return "", nil
}
