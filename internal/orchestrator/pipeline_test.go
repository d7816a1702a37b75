package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hemtt-go/hemtt/internal/diag"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingModule appends its name to a shared, mutex-guarded log every
// time one of its hooks runs, so tests can assert on call order.
type recordingModule struct {
	Base
	name     string
	priority int
	log      *[]string
	mu       *sync.Mutex
}

func (m *recordingModule) Name() string  { return m.name }
func (m *recordingModule) Priority() int { return m.priority }

func (m *recordingModule) Build(*Context) (Report, error) {
	m.mu.Lock()
	*m.log = append(*m.log, m.name)
	m.mu.Unlock()
	return Report{}, nil
}

func newTestContext(addons []*Addon) *Context {
	return &Context{
		Ctx:    context.Background(),
		Addons: addons,
		Sink:   NewSink(),
	}
}

func TestNewPipelineOrdersByPriorityThenName(t *testing.T) {
	var log []string
	var mu sync.Mutex

	b := &recordingModule{name: "b", priority: 10, log: &log, mu: &mu}
	a := &recordingModule{name: "a", priority: 10, log: &log, mu: &mu}
	z := &recordingModule{name: "z", priority: 1, log: &log, mu: &mu}

	p := NewPipeline(b, a, z)
	_, err := p.Run(newTestContext(nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "b"}, log)
}

func TestRunStopsBeforeBuildOnFatalCheckDiagnostic(t *testing.T) {
	fatal := &fatalCheckModule{}
	var ran bool
	built := &flagModule{ran: &ran}

	p := NewPipeline(fatal, built)
	_, err := p.Run(newTestContext(nil))

	require.Error(t, err)
	assert.False(t, ran, "build must not run after a fatal check diagnostic")
}

type fatalCheckModule struct{ Base }

func (fatalCheckModule) Name() string  { return "fatal-check" }
func (fatalCheckModule) Priority() int { return 1 }
func (fatalCheckModule) Check(*Context) (Report, error) {
	return Report{Diagnostics: []diag.Diagnostic{{Severity: diag.SeverityError}}}, nil
}

type flagModule struct {
	Base
	ran *bool
}

func (flagModule) Name() string  { return "flag" }
func (flagModule) Priority() int { return 2 }
func (m flagModule) Build(*Context) (Report, error) {
	*m.ran = true
	return Report{}, nil
}

func TestRunAddonWorkRunsEveryAddon(t *testing.T) {
	addons := []*Addon{
		{Name: "a", Build: NewBuildData()},
		{Name: "b", Build: NewBuildData()},
		{Name: "c", Build: NewBuildData()},
	}
	ctx := newTestContext(addons)

	var mu sync.Mutex
	seen := make(map[string]bool)
	err := RunAddonWork(ctx, func(addon *Addon) error {
		mu.Lock()
		seen[addon.Name] = true
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestRunAddonWorkPropagatesFirstError(t *testing.T) {
	addons := []*Addon{
		{Name: "a", Build: NewBuildData()},
		{Name: "b", Build: NewBuildData()},
	}
	ctx := newTestContext(addons)

	wantErr := errors.New("boom")
	err := RunAddonWork(ctx, func(addon *Addon) error {
		if addon.Name == "b" {
			return wantErr
		}
		return nil
	})
	require.Error(t, err)
}

func TestRunAddonWorkRespectsCancellation(t *testing.T) {
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := &Context{Ctx: cctx, Addons: []*Addon{{Name: "a", Build: NewBuildData()}}, Sink: NewSink()}

	err := RunAddonWork(ctx, func(*Addon) error {
		t.Fatal("addon work must not run once the context is already cancelled")
		return nil
	})
	assert.Error(t, err)
}
