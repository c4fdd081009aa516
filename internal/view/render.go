package view

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/minghu6/elflib/internal/elffile"
)

// Options control text rendering.
type Options struct {
	Color bool
}

// Renderer writes readelf-style text views of a decoded ELF.
type Renderer struct {
	w     io.Writer
	title *color.Color
	dim   *color.Color
}

// NewRenderer builds a renderer writing to w.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	title := color.New(color.Bold)
	dim := color.New(color.Faint)
	if !opts.Color {
		title.DisableColor()
		dim.DisableColor()
	}
	return &Renderer{w: w, title: title, dim: dim}
}

func (r *Renderer) heading(format string, args ...interface{}) {
	r.title.Fprintf(r.w, format+"\n", args...)
}

func (r *Renderer) table(headers []string) *tablewriter.Table {
	t := tablewriter.NewWriter(r.w)
	t.SetHeader(headers)
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// Header renders the ELF file header.
func (r *Renderer) Header(f *elffile.File) {
	h := f.Header
	r.heading("ELF Header:")

	row := func(k, v string) {
		fmt.Fprintf(r.w, "  %-36s %s\n", k+":", v)
	}
	row("Class", ClassName(h.Ident.Class))
	row("Data", DataName(h.Ident.Data))
	row("Ident version", strconv.Itoa(int(h.Ident.Version)))
	row("OS/ABI", OSABIName(h.Ident.OSABI))
	row("ABI version", strconv.Itoa(int(h.Ident.ABIVersion)))
	row("Type", TypeName(h.Type))
	row("Machine", MachineName(h.Machine))
	row("Version", fmt.Sprintf("%#x", h.Version))
	row("Entry point address", Hex(h.Entry))
	row("Start of program headers", fmt.Sprintf("%s (%d bytes into file)", Hex(h.Phoff), h.Phoff))
	row("Start of section headers", fmt.Sprintf("%s (%d bytes into file)", Hex(h.Shoff), h.Shoff))
	row("Flags", fmt.Sprintf("%#x", h.Flags))
	row("Size of this header", fmt.Sprintf("%d (bytes)", h.Ehsize))
	row("Size of program headers", fmt.Sprintf("%d (bytes)", h.Phentsize))
	row("Number of program headers", strconv.Itoa(h.Phnum))
	row("Size of section headers", fmt.Sprintf("%d (bytes)", h.Shentsize))
	row("Number of section headers", strconv.Itoa(h.Shnum))
	row("Section header string table index", strconv.Itoa(h.Shstrndx))

	if id := f.BuildID(); id != "" {
		row("Build ID", id)
	}
	fmt.Fprintln(r.w)
}

// Sections renders the section header table.
func (r *Renderer) Sections(f *elffile.File) {
	if len(f.Sections) == 0 {
		r.heading("There are no sections in this file.")
		fmt.Fprintln(r.w)
		return
	}

	r.heading("Section Headers (%d):", len(f.Sections))
	t := r.table([]string{"NR", "NAME", "TYPE", "ADDR", "OFFSET", "SIZE", "ES", "FLG", "LK", "INF", "AL"})

	var total uint64
	for i, s := range f.Sections {
		total += s.Size
		t.Append([]string{
			strconv.Itoa(i),
			s.Name,
			SectionTypeName(s.Type),
			Hex(s.Addr),
			Hex(s.Offset),
			Hex(s.Size),
			strconv.FormatUint(s.Entsize, 10),
			SectionFlagString(s.Flags),
			strconv.FormatUint(uint64(s.Link), 10),
			strconv.FormatUint(uint64(s.Info), 10),
			strconv.FormatUint(s.Addralign, 10),
		})
	}
	t.Render()
	r.dim.Fprintf(r.w, "  Key to flags: W write, A alloc, X execute, M merge, S strings, I info, L link order, G group, T TLS, C compressed\n")
	fmt.Fprintf(r.w, "  Total section size: %s\n\n", humanize.Bytes(total))
}

// Segments renders the program header table.
func (r *Renderer) Segments(f *elffile.File) {
	if len(f.Segments) == 0 {
		r.heading("There are no program headers in this file.")
		fmt.Fprintln(r.w)
		return
	}

	r.heading("Program Headers (%d):", len(f.Segments))
	t := r.table([]string{"TYPE", "FLAGS", "OFFSET", "VADDR", "PADDR", "FILESZ", "MEMSZ", "MEM", "ALIGN"})
	for _, p := range f.Segments {
		t.Append([]string{
			SegmentTypeName(p.Type),
			SegmentFlagString(p.Flags),
			Hex(p.Offset),
			Hex(p.Vaddr),
			Hex(p.Paddr),
			Hex(p.Filesz),
			Hex(p.Memsz),
			humanize.Bytes(p.Memsz),
			Hex(p.Align),
		})
	}
	t.Render()
	fmt.Fprintln(r.w)
}

// Symbols renders one symbol table. The value column is labeled per file
// type: relocatables hold section offsets (alignment for commons), linked
// objects hold virtual addresses.
func (r *Renderer) Symbols(name string, f *elffile.File, syms []elffile.Symbol) {
	if len(syms) == 0 {
		r.heading("Symbol table '%s' is empty or missing.", name)
		fmt.Fprintln(r.w)
		return
	}

	r.heading("Symbol table '%s' contains %d entries:", name, len(syms))
	t := r.table([]string{"NUM", "VALUE", "KIND", "SIZE", "TYPE", "BIND", "VIS", "NDX", "NAME"})
	for i, s := range syms {
		t.Append([]string{
			strconv.Itoa(i),
			Hex(s.Value),
			SymValueKind(f.Header.Type, s.SectionIndex),
			strconv.FormatUint(s.Size, 10),
			SymTypeName(s.Type),
			SymBindName(s.Binding),
			SymVisName(s.Visibility),
			SectionIndexName(s.SectionIndex),
			s.Name,
		})
	}
	t.Render()
	fmt.Fprintln(r.w)
}

// Dynamic renders the dynamic section: the resolved string tags first, then
// the raw entry table.
func (r *Renderer) Dynamic(f *elffile.File) {
	d := f.Dynamic
	if d == nil {
		r.heading("There is no dynamic section in this file.")
		fmt.Fprintln(r.w)
		return
	}

	r.heading("Dynamic section (%d entries):", len(d.Entries))
	for _, lib := range d.Needed {
		fmt.Fprintf(r.w, "  Needed library: %s\n", lib)
	}
	if d.SOName != "" {
		fmt.Fprintf(r.w, "  Shared object name: %s\n", d.SOName)
	}
	for _, p := range d.RPath {
		fmt.Fprintf(r.w, "  Library rpath: %s\n", p)
	}
	for _, p := range d.RunPath {
		fmt.Fprintf(r.w, "  Library runpath: %s\n", p)
	}

	t := r.table([]string{"TAG", "VALUE"})
	for _, e := range d.Entries {
		t.Append([]string{DynTagName(e.Tag), Hex(e.Value)})
	}
	t.Render()
	fmt.Fprintln(r.w)
}

// Notes renders every note entry. Descriptors are hex dumped and truncated;
// notes are vendor data, not something to pretty print in full.
func (r *Renderer) Notes(f *elffile.File) {
	if len(f.Notes) == 0 {
		r.heading("There are no notes in this file.")
		fmt.Fprintln(r.w)
		return
	}

	r.heading("Notes (%d):", len(f.Notes))
	t := r.table([]string{"SECTION", "OWNER", "TYPE", "DESC"})
	for _, n := range f.Notes {
		desc := hex.EncodeToString(n.Desc)
		if len(desc) > 64 {
			desc = desc[:64] + "..."
		}
		t.Append([]string{n.Section, n.Name, NoteTypeName(n.Name, n.Type), desc})
	}
	t.Render()
	fmt.Fprintln(r.w)
}
