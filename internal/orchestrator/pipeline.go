package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hemtt-go/hemtt/internal/herrors"
)

// Pipeline holds every registered module, run in priority order (spec.md
// §4.I: "sorted by a stable priority integer").
type Pipeline struct {
	modules []Module
}

// NewPipeline builds a pipeline from modules, sorted by priority then
// name for determinism (spec.md §5 "Hook order across modules is
// deterministic: sort by priority then name").
func NewPipeline(modules ...Module) *Pipeline {
	sorted := make([]Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority() != sorted[j].Priority() {
			return sorted[i].Priority() < sorted[j].Priority()
		}
		return sorted[i].Name() < sorted[j].Name()
	})
	return &Pipeline{modules: sorted}
}

// Run executes every hook in order against ctx, fanning each hook's
// per-addon work out across the standard addon-parallel modules (see
// RunAddonWork) and stopping before `build` if `check`/`pre_build`
// produced a fatal diagnostic (spec.md §4.I).
func (p *Pipeline) Run(ctx *Context) (Report, error) {
	var full Report
	hooks := []Hook{HookInit, HookCheck, HookPreBuild, HookBuild, HookPostBuild, HookPreRelease, HookRelease}
	for _, hook := range hooks {
		if ctx.Cancelled() {
			return full, context.Canceled
		}
		report, err := p.runHook(ctx, hook)
		full.Merge(report)
		if err != nil {
			return full, err
		}
		if (hook == HookCheck || hook == HookPreBuild) && report.Fatal() {
			return full, herrors.NewBuildError(string(hook), fmt.Errorf("one or more diagnostics are fatal"))
		}
	}
	return full, nil
}

func (p *Pipeline) runHook(ctx *Context, hook Hook) (Report, error) {
	var report Report
	for _, m := range p.modules {
		if ctx.Cancelled() {
			return report, context.Canceled
		}
		r, err := invoke(m, hook, ctx)
		if err != nil {
			return report, err
		}
		report.Merge(r)
		ctx.Sink.Push(r.Diagnostics...)
	}
	return report, nil
}

// RunAddonWork fans fn out across ctx.Addons using a worker count
// bounded by ctx.Threads (default runtime.NumCPU), per spec.md §5
// "thread pool sized to the machine's CPU count". Used by modules whose
// per-addon work is independent (rapify, script compile, pack, sign).
func RunAddonWork(ctx *Context, fn func(*Addon) error) error {
	threads := ctx.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx.Ctx)
	g.SetLimit(threads)
	for _, addon := range ctx.Addons {
		addon := addon
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return fn(addon)
		})
	}
	return g.Wait()
}
