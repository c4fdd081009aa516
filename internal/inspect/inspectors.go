package inspect

import (
	"fmt"

	"github.com/minghu6/elflib/internal/elffile"
	"github.com/minghu6/elflib/internal/view"
)

// HeaderData is the header fragment payload.
type HeaderData struct {
	Header  elffile.Header `json:"header"`
	BuildID string         `json:"build_id,omitempty"`
}

// HeaderInspector reports the file header.
type HeaderInspector struct{}

func (i *HeaderInspector) Name() string { return "header" }

func (i *HeaderInspector) Describe() string {
	return "ELF file header: class, encoding, type, machine, entry point and table geometry"
}

func (i *HeaderInspector) Inspect(f *elffile.File) Fragment {
	return Fragment{
		Summary: fmt.Sprintf("%s %s %s, entry %s",
			view.ClassName(f.Header.Ident.Class),
			view.TypeName(f.Header.Type),
			view.MachineName(f.Header.Machine),
			view.Hex(f.Header.Entry)),
		Data: HeaderData{Header: f.Header, BuildID: f.BuildID()},
	}
}

// SectionInspector reports the section header table.
type SectionInspector struct{}

func (i *SectionInspector) Name() string { return "sections" }

func (i *SectionInspector) Describe() string {
	return "Section header table with resolved names"
}

func (i *SectionInspector) Inspect(f *elffile.File) Fragment {
	return Fragment{
		Summary: fmt.Sprintf("%d sections", len(f.Sections)),
		Data:    f.Sections,
	}
}

// SegmentInspector reports the program header table.
type SegmentInspector struct{}

func (i *SegmentInspector) Name() string { return "segments" }

func (i *SegmentInspector) Describe() string {
	return "Program header table"
}

func (i *SegmentInspector) Inspect(f *elffile.File) Fragment {
	return Fragment{
		Summary: fmt.Sprintf("%d segments", len(f.Segments)),
		Data:    f.Segments,
	}
}

// SymbolsData is the symbols fragment payload.
type SymbolsData struct {
	Symtab   []elffile.Symbol `json:"symtab"`
	Dynsym   []elffile.Symbol `json:"dynsym"`
	Stripped bool             `json:"stripped"`
}

// SymbolInspector reports both symbol tables.
type SymbolInspector struct{}

func (i *SymbolInspector) Name() string { return "symbols" }

func (i *SymbolInspector) Describe() string {
	return "Static (.symtab) and dynamic (.dynsym) symbol tables"
}

func (i *SymbolInspector) Inspect(f *elffile.File) Fragment {
	summary := fmt.Sprintf("%d symtab / %d dynsym entries", len(f.Symbols), len(f.DynSymbols))
	if f.Stripped() {
		summary += " (stripped)"
	}
	return Fragment{
		Summary: summary,
		Data: SymbolsData{
			Symtab:   f.Symbols,
			Dynsym:   f.DynSymbols,
			Stripped: f.Stripped(),
		},
	}
}

// DynamicInspector reports the dynamic section.
type DynamicInspector struct{}

func (i *DynamicInspector) Name() string { return "dynamic" }

func (i *DynamicInspector) Describe() string {
	return "Dynamic section: needed libraries, soname, search paths and loader flags"
}

func (i *DynamicInspector) Inspect(f *elffile.File) Fragment {
	if f.Dynamic == nil {
		return Fragment{Summary: "statically linked (no dynamic section)"}
	}
	return Fragment{
		Summary: fmt.Sprintf("%d needed libraries", len(f.Dynamic.Needed)),
		Data:    f.Dynamic,
	}
}

// NoteInspector reports note sections.
type NoteInspector struct{}

func (i *NoteInspector) Name() string { return "notes" }

func (i *NoteInspector) Describe() string {
	return "Note sections, including the GNU build ID"
}

func (i *NoteInspector) Inspect(f *elffile.File) Fragment {
	summary := fmt.Sprintf("%d notes", len(f.Notes))
	if id := f.BuildID(); id != "" {
		summary = fmt.Sprintf("%d notes, build ID %s", len(f.Notes), id)
	}
	return Fragment{
		Summary: summary,
		Data:    f.Notes,
	}
}
