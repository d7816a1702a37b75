package orchestrator

import (
	"context"

	"github.com/hemtt-go/hemtt/internal/diag"
	"github.com/hemtt-go/hemtt/internal/project"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

// Hook is one of the pipeline's seven invocation points (spec.md §4.I).
type Hook string

const (
	HookInit        Hook = "init"
	HookCheck       Hook = "check"
	HookPreBuild    Hook = "pre_build"
	HookBuild       Hook = "build"
	HookPostBuild   Hook = "post_build"
	HookPreRelease  Hook = "pre_release"
	HookRelease     Hook = "release"
)

// Report is a module's hook result: zero or more diagnostics. Whether
// it is fatal is derived from those diagnostics by Fatal (spec.md §4.I:
// "If any check or pre_build report contains a fatal code, the pipeline
// stops before build").
type Report struct {
	Diagnostics []diag.Diagnostic
}

// Fatal reports whether any diagnostic in r is at or above error
// severity.
func (r Report) Fatal() bool {
	for _, d := range r.Diagnostics {
		if d.IsFatal() {
			return true
		}
	}
	return false
}

// Merge appends other's diagnostics onto r.
func (r *Report) Merge(other Report) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// Context carries everything a module's hook methods need: the
// workspace, the project configuration, the addons discovered this
// build, and the shared diagnostic sink (spec.md §4.I "invoked against
// a Context carrying the workspace, the discovered addons, and the
// shared diagnostic sink").
type Context struct {
	Ctx       context.Context
	Workspace *workspace.Workspace
	Project   *project.Config
	Addons    []*Addon
	Sink      *Sink
	OutFolder workspace.Path
	Threads   int
}

// Cancelled reports whether the orchestrator's context was cancelled; a
// module must check this before starting expensive per-addon work
// (spec.md §5: cancellation is cooperative, checked at hook/addon
// boundaries, never mid-task).
func (c *Context) Cancelled() bool {
	select {
	case <-c.Ctx.Done():
		return true
	default:
		return false
	}
}

// Module is one pipeline stage. A module implements any subset of the
// seven hooks; the default no-op embeddable Base satisfies all of them
// so a concrete module only overrides what it needs, mirroring how the
// teacher's lint framework lets a Lint implementation ignore the hooks
// it doesn't care about.
type Module interface {
	Name() string
	Priority() int

	Init(*Context) (Report, error)
	Check(*Context) (Report, error)
	PreBuild(*Context) (Report, error)
	Build(*Context) (Report, error)
	PostBuild(*Context) (Report, error)
	PreRelease(*Context) (Report, error)
	Release(*Context) (Report, error)
}

// Base gives every hook a no-op implementation; embed it in a concrete
// module and override only the hooks it participates in.
type Base struct{}

func (Base) Init(*Context) (Report, error)       { return Report{}, nil }
func (Base) Check(*Context) (Report, error)      { return Report{}, nil }
func (Base) PreBuild(*Context) (Report, error)   { return Report{}, nil }
func (Base) Build(*Context) (Report, error)      { return Report{}, nil }
func (Base) PostBuild(*Context) (Report, error)  { return Report{}, nil }
func (Base) PreRelease(*Context) (Report, error) { return Report{}, nil }
func (Base) Release(*Context) (Report, error)    { return Report{}, nil }

func invoke(m Module, hook Hook, ctx *Context) (Report, error) {
	switch hook {
	case HookInit:
		return m.Init(ctx)
	case HookCheck:
		return m.Check(ctx)
	case HookPreBuild:
		return m.PreBuild(ctx)
	case HookBuild:
		return m.Build(ctx)
	case HookPostBuild:
		return m.PostBuild(ctx)
	case HookPreRelease:
		return m.PreRelease(ctx)
	case HookRelease:
		return m.Release(ctx)
	default:
		return Report{}, nil
	}
}
