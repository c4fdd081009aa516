// Package inspect assembles inspection reports from a decoded ELF. Each
// inspector contributes one named fragment; a runner executes a registered set
// of inspectors and collects the fragments into a Report that the CLI can
// emit as text or JSON.
package inspect

import (
	"time"

	"github.com/pkg/errors"

	"github.com/minghu6/elflib/internal/elffile"
)

// Inspector produces one report fragment from a decoded file.
type Inspector interface {
	// Name is the stable identifier used to select the inspector.
	Name() string

	// Describe says what the inspector reports on.
	Describe() string

	// Inspect examines the file. It must not fail: a decoded File is already
	// structurally valid, so inspectors only summarize what is (or isn't) there.
	Inspect(f *elffile.File) Fragment
}

// Fragment is one inspector's contribution to a report.
type Fragment struct {
	Name     string        `json:"name"`
	Summary  string        `json:"summary"`
	Duration time.Duration `json:"duration"`
	Data     interface{}   `json:"data,omitempty"`
}

// Registry holds inspectors in registration order.
type Registry struct {
	order  []Inspector
	byName map[string]Inspector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Inspector)}
}

// Register adds an inspector. Names must be unique.
func (r *Registry) Register(ins Inspector) error {
	if _, dup := r.byName[ins.Name()]; dup {
		return errors.Errorf("inspector %q registered twice", ins.Name())
	}
	r.byName[ins.Name()] = ins
	r.order = append(r.order, ins)
	return nil
}

// Get retrieves an inspector by name.
func (r *Registry) Get(name string) (Inspector, bool) {
	ins, ok := r.byName[name]
	return ins, ok
}

// List returns all inspectors in registration order.
func (r *Registry) List() []Inspector {
	return append([]Inspector(nil), r.order...)
}

// Report is the assembled output of a run.
type Report struct {
	Path        string     `json:"path"`
	GeneratedAt time.Time  `json:"generated_at"`
	Fragments   []Fragment `json:"fragments"`
}

// Fragment returns the named fragment, or nil.
func (r *Report) Fragment(name string) *Fragment {
	for i := range r.Fragments {
		if r.Fragments[i].Name == name {
			return &r.Fragments[i]
		}
	}
	return nil
}

// Runner executes inspectors against a file.
type Runner struct {
	registry *Registry
}

// NewRunner creates a runner over a registry.
func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

// RunAll executes every registered inspector.
func (r *Runner) RunAll(f *elffile.File) *Report {
	return r.run(f, r.registry.List())
}

// RunSelected executes the named inspectors, in the given order. Unknown
// names are an error rather than silently skipped.
func (r *Runner) RunSelected(f *elffile.File, names []string) (*Report, error) {
	selected := make([]Inspector, 0, len(names))
	for _, name := range names {
		ins, ok := r.registry.Get(name)
		if !ok {
			return nil, errors.Errorf("unknown inspector %q", name)
		}
		selected = append(selected, ins)
	}
	return r.run(f, selected), nil
}

func (r *Runner) run(f *elffile.File, inspectors []Inspector) *Report {
	report := &Report{
		Path:        f.Path,
		GeneratedAt: time.Now(),
		Fragments:   make([]Fragment, 0, len(inspectors)),
	}
	for _, ins := range inspectors {
		start := time.Now()
		frag := ins.Inspect(f)
		frag.Name = ins.Name()
		frag.Duration = time.Since(start)
		report.Fragments = append(report.Fragments, frag)
	}
	return report
}

// DefaultRegistry returns a registry with the full inspector set.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, ins := range []Inspector{
		&HeaderInspector{},
		&SectionInspector{},
		&SegmentInspector{},
		&SymbolInspector{},
		&DynamicInspector{},
		&NoteInspector{},
		&HardeningInspector{},
	} {
		// names are compile-time constants, duplicates cannot happen here
		_ = r.Register(ins)
	}
	return r
}
