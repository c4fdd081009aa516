package elffile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// loadSymbolTables decodes .symtab and .dynsym, each against the string table
// its sh_link points at. A file may legitimately carry neither (stripped
// executables), either, or both.
func (f *File) loadSymbolTables() error {
	if s := f.sectionOfType(elf.SHT_SYMTAB); s != nil {
		syms, err := f.loadSymbols(s)
		if err != nil {
			return err
		}
		f.Symbols = syms
	}
	if s := f.sectionOfType(elf.SHT_DYNSYM); s != nil {
		syms, err := f.loadSymbols(s)
		if err != nil {
			return err
		}
		f.DynSymbols = syms
	}
	return nil
}

func (f *File) sectionOfType(t elf.SectionType) *Section {
	for _, s := range f.Sections {
		if s.Type == t {
			return s
		}
	}
	return nil
}

// linkedStrTab resolves the string table a section's sh_link refers to.
func (f *File) linkedStrTab(s *Section) (StrTab, error) {
	if int(s.Link) >= len(f.Sections) {
		return EmptyStrTab(), formatErrorf(s.Offset, "section %q links to string table %d outside table of %d entries",
			s.Name, s.Link, len(f.Sections))
	}
	data, err := f.SectionData(f.Sections[s.Link])
	if err != nil {
		return EmptyStrTab(), err
	}
	return NewStrTab(data), nil
}

func (f *File) symbolSize() uint64 {
	if f.Header.Ident.Class == elf.ELFCLASS64 {
		return elf.Sym64Size
	}
	return elf.Sym32Size
}

func (f *File) loadSymbols(s *Section) ([]Symbol, error) {
	strtab, err := f.linkedStrTab(s)
	if err != nil {
		return nil, err
	}

	entsize := s.Entsize
	if entsize == 0 {
		entsize = f.symbolSize()
	}
	if entsize < f.symbolSize() {
		return nil, formatErrorf(s.Offset, "section %q symbol entry size %d below minimum %d",
			s.Name, entsize, f.symbolSize())
	}

	// the table must fit in the file before its size is trusted
	if _, err := f.slice(s.Offset, s.Size); err != nil {
		return nil, err
	}

	num := s.Size / entsize
	syms := make([]Symbol, 0, num)
	for i := uint64(0); i < num; i++ {
		off := s.Offset + i*entsize
		b, err := f.slice(off, f.symbolSize())
		if err != nil {
			return nil, err
		}

		var sym Symbol
		if f.Header.Ident.Class == elf.ELFCLASS64 {
			var raw elf.Sym64
			if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &raw); err != nil {
				return nil, formatErrorf(off, "decode symbol %d of %q: %v", i, s.Name, err)
			}
			sym = Symbol{
				Name:         strtab.Lookup(raw.Name),
				Binding:      elf.ST_BIND(raw.Info),
				Type:         elf.ST_TYPE(raw.Info),
				Visibility:   elf.ST_VISIBILITY(raw.Other),
				SectionIndex: elf.SectionIndex(raw.Shndx),
				Value:        raw.Value,
				Size:         raw.Size,
			}
		} else {
			var raw elf.Sym32
			if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &raw); err != nil {
				return nil, formatErrorf(off, "decode symbol %d of %q: %v", i, s.Name, err)
			}
			sym = Symbol{
				Name:         strtab.Lookup(raw.Name),
				Binding:      elf.ST_BIND(raw.Info),
				Type:         elf.ST_TYPE(raw.Info),
				Visibility:   elf.ST_VISIBILITY(raw.Other),
				SectionIndex: elf.SectionIndex(raw.Shndx),
				Value:        uint64(raw.Value),
				Size:         uint64(raw.Size),
			}
		}
		syms = append(syms, sym)
	}
	return syms, nil
}
