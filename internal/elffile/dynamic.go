package elffile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"strings"
)

const (
	dynEntrySize64 = 16
	dynEntrySize32 = 8
)

// DynEntry is one raw .dynamic entry.
type DynEntry struct {
	Tag   elf.DynTag `json:"tag"`
	Value uint64     `json:"value"`
}

// Dynamic holds the decoded dynamic section: the raw entry list plus the
// string-valued tags resolved through the linked string table.
type Dynamic struct {
	Entries []DynEntry   `json:"entries"`
	Needed  []string     `json:"needed"`
	SOName  string       `json:"soname,omitempty"`
	RPath   []string     `json:"rpath,omitempty"`
	RunPath []string     `json:"runpath,omitempty"`
	Flags   elf.DynFlag  `json:"flags"`
	Flags1  elf.DynFlag1 `json:"flags1"`
}

// BindNow reports whether the object asks the loader to resolve all
// relocations at startup, via either DT_FLAGS or DT_FLAGS_1.
func (d *Dynamic) BindNow() bool {
	return d.Flags&elf.DF_BIND_NOW != 0 || d.Flags1&elf.DF_1_NOW != 0
}

// PIE reports whether the object is marked position independent in DT_FLAGS_1.
func (d *Dynamic) PIE() bool {
	return d.Flags1&elf.DF_1_PIE != 0
}

func (f *File) dynEntrySize() uint64 {
	if f.Header.Ident.Class == elf.ELFCLASS64 {
		return dynEntrySize64
	}
	return dynEntrySize32
}

// parseDynamic decodes the dynamic section if present. Entries after the
// first DT_NULL terminator are padding and ignored.
func (f *File) parseDynamic() error {
	s := f.sectionOfType(elf.SHT_DYNAMIC)
	if s == nil {
		return nil
	}

	strtab, err := f.linkedStrTab(s)
	if err != nil {
		return err
	}
	data, err := f.SectionData(s)
	if err != nil {
		return err
	}

	dyn := &Dynamic{}
	entsize := f.dynEntrySize()
	r := bytes.NewReader(data)
	for uint64(r.Len()) >= entsize {
		var tag elf.DynTag
		var val uint64
		if f.Header.Ident.Class == elf.ELFCLASS64 {
			var raw elf.Dyn64
			if err := binary.Read(r, f.ByteOrder, &raw); err != nil {
				return formatErrorf(s.Offset, "decode dynamic entry: %v", err)
			}
			tag, val = elf.DynTag(raw.Tag), raw.Val
		} else {
			var raw elf.Dyn32
			if err := binary.Read(r, f.ByteOrder, &raw); err != nil {
				return formatErrorf(s.Offset, "decode dynamic entry: %v", err)
			}
			tag, val = elf.DynTag(raw.Tag), uint64(raw.Val)
		}

		if tag == elf.DT_NULL {
			break
		}
		dyn.Entries = append(dyn.Entries, DynEntry{Tag: tag, Value: val})

		switch tag {
		case elf.DT_NEEDED:
			if name := strtab.Lookup(uint32(val)); name != "" {
				dyn.Needed = append(dyn.Needed, name)
			}
		case elf.DT_SONAME:
			dyn.SOName = strtab.Lookup(uint32(val))
		case elf.DT_RPATH:
			dyn.RPath = splitSearchPath(strtab.Lookup(uint32(val)))
		case elf.DT_RUNPATH:
			dyn.RunPath = splitSearchPath(strtab.Lookup(uint32(val)))
		case elf.DT_FLAGS:
			dyn.Flags = elf.DynFlag(val)
		case elf.DT_FLAGS_1:
			dyn.Flags1 = elf.DynFlag1(val)
		}
	}

	f.Dynamic = dyn
	return nil
}

// splitSearchPath splits a colon-separated DT_RPATH/DT_RUNPATH value.
func splitSearchPath(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ":")
}
