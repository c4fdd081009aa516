// Package elffile decodes ELF object files into a fully resolved, render-ready
// model: file header, section and program header tables, string tables, symbol
// tables, the dynamic section and note segments.
//
// The package reads the raw tables itself with encoding/binary rather than
// going through debug/elf's File, so that malformed and truncated images can
// be reported with offset context instead of being rejected wholesale. It
// reuses the debug/elf constant vocabulary (classes, machines, section types,
// symbol bindings and so on) instead of redefining it.
package elffile

import (
	"debug/elf"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// Ident is the decoded e_ident block, the first 16 bytes of every ELF file.
type Ident struct {
	Magic      [4]byte     `json:"-"`
	Class      elf.Class   `json:"class"`
	Data       elf.Data    `json:"data"`
	Version    elf.Version `json:"version"`
	OSABI      elf.OSABI   `json:"osabi"`
	ABIVersion uint8       `json:"abi_version"`
}

// Header is the ELF file header with 32-bit fields widened to 64 bits so that
// both classes share one model.
type Header struct {
	Ident     Ident       `json:"ident"`
	Type      elf.Type    `json:"type"`
	Machine   elf.Machine `json:"machine"`
	Version   uint32      `json:"version"`
	Entry     uint64      `json:"entry"`
	Phoff     uint64      `json:"phoff"`
	Shoff     uint64      `json:"shoff"`
	Flags     uint32      `json:"flags"`
	Ehsize    uint16      `json:"ehsize"`
	Phentsize uint16      `json:"phentsize"`
	Phnum     int         `json:"phnum"`
	Shentsize uint16      `json:"shentsize"`
	Shnum     int         `json:"shnum"`
	Shstrndx  int         `json:"shstrndx"`
}

// Section is one section header table entry with its name already resolved
// through .shstrtab.
type Section struct {
	Name      string          `json:"name"`
	NameIndex uint32          `json:"-"`
	Type      elf.SectionType `json:"type"`
	Flags     elf.SectionFlag `json:"flags"`
	Addr      uint64          `json:"addr"`
	Offset    uint64          `json:"offset"`
	Size      uint64          `json:"size"`
	Link      uint32          `json:"link"`
	Info      uint32          `json:"info"`
	Addralign uint64          `json:"addralign"`
	Entsize   uint64          `json:"entsize"`
}

// Segment is one program header table entry.
type Segment struct {
	Type   elf.ProgType `json:"type"`
	Flags  elf.ProgFlag `json:"flags"`
	Offset uint64       `json:"offset"`
	Vaddr  uint64       `json:"vaddr"`
	Paddr  uint64       `json:"paddr"`
	Filesz uint64       `json:"filesz"`
	Memsz  uint64       `json:"memsz"`
	Align  uint64       `json:"align"`
}

// Symbol is one symbol table entry with its name resolved and the st_info /
// st_other bitfields split out.
type Symbol struct {
	Name         string           `json:"name"`
	Binding      elf.SymBind      `json:"binding"`
	Type         elf.SymType      `json:"type"`
	Visibility   elf.SymVis       `json:"visibility"`
	SectionIndex elf.SectionIndex `json:"shndx"`
	Value        uint64           `json:"value"`
	Size         uint64           `json:"size"`
}

// File is a fully decoded ELF image.
type File struct {
	Path      string
	Header    Header
	ByteOrder binary.ByteOrder

	Sections []*Section
	Segments []*Segment

	ShStrTab StrTab

	// Symbols is .symtab resolved against .strtab; DynSymbols is .dynsym
	// resolved against .dynstr. Either may be empty.
	Symbols    []Symbol
	DynSymbols []Symbol

	// Dynamic is nil when the file has no dynamic section.
	Dynamic *Dynamic

	Notes []Note

	data []byte
}

// Load reads and decodes the ELF file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	f.Path = path
	return f, nil
}

// Parse decodes an in-memory ELF image.
func Parse(data []byte) (*File, error) {
	ident, bo, err := parseIdent(data)
	if err != nil {
		return nil, err
	}

	f := &File{ByteOrder: bo, data: data}
	f.Header.Ident = ident

	switch ident.Class {
	case elf.ELFCLASS64:
		err = f.parseHeader64()
	case elf.ELFCLASS32:
		err = f.parseHeader32()
	default:
		return nil, errors.Wrapf(ErrUnknownClass, "class %d", int(ident.Class))
	}
	if err != nil {
		return nil, err
	}

	if err := f.parseSections(); err != nil {
		return nil, err
	}
	if err := f.parseSegments(); err != nil {
		return nil, err
	}
	if err := f.loadSymbolTables(); err != nil {
		return nil, err
	}
	if err := f.parseDynamic(); err != nil {
		return nil, err
	}
	if err := f.parseNotes(); err != nil {
		return nil, err
	}

	return f, nil
}

// parseIdent decodes e_ident and picks the byte order for everything after it.
func parseIdent(data []byte) (Ident, binary.ByteOrder, error) {
	var ident Ident

	if len(data) < elf.EI_NIDENT {
		return ident, nil, formatErrorf(0, "file of %d bytes is shorter than the ident block", len(data))
	}
	if string(data[:4]) != elf.ELFMAG {
		return ident, nil, errors.Wrapf(ErrBadMagic, "got % x", data[:4])
	}

	copy(ident.Magic[:], data[:4])
	ident.Class = elf.Class(data[elf.EI_CLASS])
	ident.Data = elf.Data(data[elf.EI_DATA])
	ident.Version = elf.Version(data[elf.EI_VERSION])
	ident.OSABI = elf.OSABI(data[elf.EI_OSABI])
	ident.ABIVersion = data[elf.EI_ABIVERSION]

	var bo binary.ByteOrder
	switch ident.Data {
	case elf.ELFDATA2LSB:
		bo = binary.LittleEndian
	case elf.ELFDATA2MSB:
		bo = binary.BigEndian
	default:
		return ident, nil, errors.Wrapf(ErrUnknownData, "encoding %d", int(ident.Data))
	}

	if ident.Class != elf.ELFCLASS32 && ident.Class != elf.ELFCLASS64 {
		return ident, nil, errors.Wrapf(ErrUnknownClass, "class %d", int(ident.Class))
	}

	return ident, bo, nil
}

// slice bounds-checks a [off, off+n) window of the file image.
func (f *File) slice(off, n uint64) ([]byte, error) {
	end := off + n
	if end < off || end > uint64(len(f.data)) {
		return nil, formatErrorf(off, "range [%#x, %#x) outside file of %d bytes", off, end, len(f.data))
	}
	return f.data[off:end], nil
}

// Section returns the first section with the given name, or nil.
func (f *File) Section(name string) *Section {
	for _, s := range f.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SectionData returns the file bytes backing a section. SHT_NOBITS sections
// occupy no file space and yield an empty slice.
func (f *File) SectionData(s *Section) ([]byte, error) {
	if s.Type == elf.SHT_NOBITS {
		return nil, nil
	}
	return f.slice(s.Offset, s.Size)
}

// Stripped reports whether the file carries no static symbol table.
func (f *File) Stripped() bool {
	return f.Section(".symtab") == nil
}
