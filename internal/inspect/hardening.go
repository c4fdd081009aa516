package inspect

import (
	"debug/elf"
	"fmt"
	"strings"

	"github.com/minghu6/elflib/internal/elffile"
)

// RelroLevel grades GOT protection.
type RelroLevel string

const (
	RelroNone    RelroLevel = "none"
	RelroPartial RelroLevel = "partial"
	RelroFull    RelroLevel = "full"
)

// Hardening summarizes the binary hardening features a loader or auditor
// cares about.
type Hardening struct {
	NX          bool       `json:"nx"`
	Relro       RelroLevel `json:"relro"`
	PIE         bool       `json:"pie"`
	StackCanary bool       `json:"stack_canary"`
	BindNow     bool       `json:"bind_now"`
	Stripped    bool       `json:"stripped"`
	Issues      []string   `json:"issues,omitempty"`
}

// AnalyzeHardening derives hardening facts from the segment table, the
// dynamic section and the symbol tables.
func AnalyzeHardening(f *elffile.File) *Hardening {
	h := &Hardening{
		Relro:    RelroNone,
		Stripped: f.Stripped(),
	}

	// NX: a PT_GNU_STACK segment without PF_X marks the stack non-executable.
	// Without the segment the kernel falls back to an executable stack.
	for _, p := range f.SegmentsOfType(elf.PT_GNU_STACK) {
		h.NX = p.Flags&elf.PF_X == 0
	}

	if f.Dynamic != nil {
		h.BindNow = f.Dynamic.BindNow()
		h.PIE = f.Header.Type == elf.ET_DYN && f.Dynamic.PIE()
	}

	if len(f.SegmentsOfType(elf.PT_GNU_RELRO)) > 0 {
		h.Relro = RelroPartial
		if h.BindNow {
			h.Relro = RelroFull
		}
	}

	h.StackCanary = hasCanarySymbol(f.Symbols) || hasCanarySymbol(f.DynSymbols)

	if !h.NX {
		h.Issues = append(h.Issues, "stack is executable (no PT_GNU_STACK or PF_X set)")
	}
	if h.Relro != RelroFull {
		h.Issues = append(h.Issues, fmt.Sprintf("RELRO is %s", h.Relro))
	}
	if f.Header.Type == elf.ET_EXEC {
		h.Issues = append(h.Issues, "fixed load address (not position independent)")
	}
	if !h.StackCanary && !h.Stripped {
		h.Issues = append(h.Issues, "no stack canary symbols found")
	}
	return h
}

func hasCanarySymbol(syms []elffile.Symbol) bool {
	for _, s := range syms {
		switch s.Name {
		case "__stack_chk_fail", "__stack_chk_guard", "__intel_security_cookie":
			return true
		}
	}
	return false
}

// Summary renders a one-line verdict.
func (h *Hardening) Summary() string {
	mark := func(on bool, label string) string {
		if on {
			return label
		}
		return "no " + label
	}
	parts := []string{
		mark(h.NX, "NX"),
		fmt.Sprintf("%s RELRO", h.Relro),
		mark(h.PIE, "PIE"),
		mark(h.StackCanary, "canary"),
	}
	if h.Stripped {
		parts = append(parts, "stripped")
	}
	return strings.Join(parts, ", ")
}

// HardeningInspector reports hardening features.
type HardeningInspector struct{}

func (i *HardeningInspector) Name() string { return "hardening" }

func (i *HardeningInspector) Describe() string {
	return "Hardening features: NX, RELRO, PIE, stack canary, symbol stripping"
}

func (i *HardeningInspector) Inspect(f *elffile.File) Fragment {
	h := AnalyzeHardening(f)
	return Fragment{
		Summary: h.Summary(),
		Data:    h,
	}
}
