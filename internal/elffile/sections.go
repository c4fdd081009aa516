package elffile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

const (
	sectionHeaderSize64 = 64
	sectionHeaderSize32 = 40
)

func (f *File) sectionHeaderSize() uint64 {
	if f.Header.Ident.Class == elf.ELFCLASS64 {
		return sectionHeaderSize64
	}
	return sectionHeaderSize32
}

// parseSections decodes the section header table and resolves section names
// through .shstrtab. Extended numbering is honored: a zero e_shnum stashes the
// real count in section 0's sh_size, and an e_shstrndx of SHN_XINDEX stashes
// the real string table index in section 0's sh_link.
func (f *File) parseSections() error {
	f.ShStrTab = EmptyStrTab()

	if f.Header.Shoff == 0 {
		return nil
	}
	if uint64(f.Header.Shentsize) < f.sectionHeaderSize() {
		return formatErrorf(f.Header.Shoff, "section header entry size %d below minimum %d",
			f.Header.Shentsize, f.sectionHeaderSize())
	}

	sec0, err := f.readSectionHeader(0)
	if err != nil {
		return err
	}

	claimed := uint64(f.Header.Shnum)
	if claimed == 0 {
		claimed = sec0.Size
	}
	// the claimed count cannot exceed what the file has room for
	if max := (uint64(len(f.data)) - f.Header.Shoff) / uint64(f.Header.Shentsize); claimed > max {
		return formatErrorf(f.Header.Shoff, "section count %d exceeds the %d entries the file has room for",
			claimed, max)
	}
	shnum := int(claimed)
	f.Header.Shnum = shnum
	if f.Header.Shstrndx == int(elf.SHN_XINDEX) {
		f.Header.Shstrndx = int(sec0.Link)
	}
	if shnum == 0 {
		return nil
	}

	sections := make([]*Section, 0, shnum)
	sections = append(sections, sec0)
	for i := 1; i < shnum; i++ {
		s, err := f.readSectionHeader(i)
		if err != nil {
			return err
		}
		sections = append(sections, s)
	}
	f.Sections = sections

	if f.Header.Shstrndx < 0 || f.Header.Shstrndx >= shnum {
		return formatErrorf(f.Header.Shoff, "section name string table index %d outside table of %d entries",
			f.Header.Shstrndx, shnum)
	}
	strData, err := f.SectionData(sections[f.Header.Shstrndx])
	if err != nil {
		return err
	}
	f.ShStrTab = NewStrTab(strData)

	for _, s := range sections {
		s.Name = f.ShStrTab.Lookup(s.NameIndex)
	}
	return nil
}

func (f *File) readSectionHeader(i int) (*Section, error) {
	off := f.Header.Shoff + uint64(i)*uint64(f.Header.Shentsize)
	b, err := f.slice(off, f.sectionHeaderSize())
	if err != nil {
		return nil, err
	}

	if f.Header.Ident.Class == elf.ELFCLASS64 {
		var sh elf.Section64
		if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &sh); err != nil {
			return nil, formatErrorf(off, "decode section header %d: %v", i, err)
		}
		return &Section{
			NameIndex: sh.Name,
			Type:      elf.SectionType(sh.Type),
			Flags:     elf.SectionFlag(sh.Flags),
			Addr:      sh.Addr,
			Offset:    sh.Off,
			Size:      sh.Size,
			Link:      sh.Link,
			Info:      sh.Info,
			Addralign: sh.Addralign,
			Entsize:   sh.Entsize,
		}, nil
	}

	var sh elf.Section32
	if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &sh); err != nil {
		return nil, formatErrorf(off, "decode section header %d: %v", i, err)
	}
	return &Section{
		NameIndex: sh.Name,
		Type:      elf.SectionType(sh.Type),
		Flags:     elf.SectionFlag(sh.Flags),
		Addr:      uint64(sh.Addr),
		Offset:    uint64(sh.Off),
		Size:      uint64(sh.Size),
		Link:      sh.Link,
		Info:      sh.Info,
		Addralign: uint64(sh.Addralign),
		Entsize:   uint64(sh.Entsize),
	}, nil
}
