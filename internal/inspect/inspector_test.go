package inspect

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minghu6/elflib/internal/elffile"
)

func dynExecutable() *elffile.File {
	f := &elffile.File{Path: "/usr/bin/sample"}
	f.Header.Ident.Class = elf.ELFCLASS64
	f.Header.Ident.Data = elf.ELFDATA2LSB
	f.Header.Type = elf.ET_DYN
	f.Header.Machine = elf.EM_X86_64
	f.Header.Entry = 0x1040

	f.Sections = []*elffile.Section{
		{},
		{Name: ".text", Type: elf.SHT_PROGBITS, Flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR},
		{Name: ".symtab", Type: elf.SHT_SYMTAB},
		{Name: ".shstrtab", Type: elf.SHT_STRTAB},
	}
	f.Segments = []*elffile.Segment{
		{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_X},
		{Type: elf.PT_GNU_STACK, Flags: elf.PF_R | elf.PF_W},
		{Type: elf.PT_GNU_RELRO},
	}
	f.Symbols = []elffile.Symbol{
		{},
		{Name: "main", Binding: elf.STB_GLOBAL, Type: elf.STT_FUNC, Value: 0x1040},
		{Name: "__stack_chk_fail", Binding: elf.STB_GLOBAL, Type: elf.STT_FUNC},
	}
	f.DynSymbols = []elffile.Symbol{{}, {Name: "puts"}}
	f.Dynamic = &elffile.Dynamic{
		Needed: []string{"libc.so.6"},
		Flags:  elf.DF_BIND_NOW,
		Flags1: elf.DF_1_NOW | elf.DF_1_PIE,
	}
	f.Notes = []elffile.Note{
		{Section: ".note.gnu.build-id", Name: "GNU", Type: elffile.NoteGNUBuildID, Desc: []byte{0x12, 0x34}},
	}
	return f
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&HeaderInspector{}))
	assert.Error(t, r.Register(&HeaderInspector{}))
}

func TestRegistryOrder(t *testing.T) {
	r := DefaultRegistry()
	list := r.List()
	require.NotEmpty(t, list)
	assert.Equal(t, "header", list[0].Name())

	_, ok := r.Get("hardening")
	assert.True(t, ok)
	_, ok = r.Get("nonsense")
	assert.False(t, ok)
}

func TestRunAll(t *testing.T) {
	f := dynExecutable()
	report := NewRunner(DefaultRegistry()).RunAll(f)

	assert.Equal(t, "/usr/bin/sample", report.Path)
	require.Len(t, report.Fragments, 7)
	assert.False(t, report.GeneratedAt.IsZero())

	hdr := report.Fragment("header")
	require.NotNil(t, hdr)
	assert.Contains(t, hdr.Summary, "ELF64")
	assert.Contains(t, hdr.Summary, "DYN")
	assert.Contains(t, hdr.Summary, "X86_64")

	data, ok := hdr.Data.(HeaderData)
	require.True(t, ok)
	assert.Equal(t, "1234", data.BuildID)

	assert.Contains(t, report.Fragment("sections").Summary, "4 sections")
	assert.Contains(t, report.Fragment("segments").Summary, "3 segments")
	assert.Contains(t, report.Fragment("symbols").Summary, "3 symtab / 2 dynsym")
	assert.Contains(t, report.Fragment("dynamic").Summary, "1 needed")
	assert.Contains(t, report.Fragment("notes").Summary, "build ID 1234")
	assert.Nil(t, report.Fragment("nonsense"))
}

func TestRunSelected(t *testing.T) {
	f := dynExecutable()
	runner := NewRunner(DefaultRegistry())

	report, err := runner.RunSelected(f, []string{"dynamic", "header"})
	require.NoError(t, err)
	require.Len(t, report.Fragments, 2)
	assert.Equal(t, "dynamic", report.Fragments[0].Name)
	assert.Equal(t, "header", report.Fragments[1].Name)

	_, err = runner.RunSelected(f, []string{"header", "bogus"})
	assert.Error(t, err)
}

func TestStaticBinaryFragments(t *testing.T) {
	f := &elffile.File{}
	f.Header.Type = elf.ET_EXEC

	report := NewRunner(DefaultRegistry()).RunAll(f)
	assert.Contains(t, report.Fragment("dynamic").Summary, "statically linked")
	assert.Contains(t, report.Fragment("symbols").Summary, "stripped")
	assert.Nil(t, report.Fragment("dynamic").Data)
}
