// Package view turns the numeric fields of a decoded ELF into human-readable
// form: named constants, flag letters, hex addresses and table renderings.
package view

import (
	"debug/elf"
	"fmt"
	"strings"

	"github.com/minghu6/elflib/internal/elffile"
)

// Hex formats an address or offset the way inspection tools print them.
func Hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}

// ClassName names an ELF class.
func ClassName(c elf.Class) string {
	switch c {
	case elf.ELFCLASS32:
		return "ELF32"
	case elf.ELFCLASS64:
		return "ELF64"
	default:
		return fmt.Sprintf("invalid (%d)", int(c))
	}
}

// DataName names an ELF data encoding.
func DataName(d elf.Data) string {
	switch d {
	case elf.ELFDATA2LSB:
		return "2's complement, little endian"
	case elf.ELFDATA2MSB:
		return "2's complement, big endian"
	default:
		return fmt.Sprintf("invalid (%d)", int(d))
	}
}

// OSABIName names an OS/ABI identifier.
func OSABIName(o elf.OSABI) string {
	if s := o.String(); strings.HasPrefix(s, "ELFOSABI_") {
		return strings.TrimPrefix(s, "ELFOSABI_")
	}
	return fmt.Sprintf("unknown (%d)", int(o))
}

// TypeName names an object file type.
func TypeName(t elf.Type) string {
	switch {
	case t >= elf.ET_LOOS && t <= elf.ET_HIOS:
		return fmt.Sprintf("OS-specific (%#x)", uint16(t))
	case t >= elf.ET_LOPROC:
		return fmt.Sprintf("processor-specific (%#x)", uint16(t))
	}
	if s := t.String(); strings.HasPrefix(s, "ET_") {
		return strings.TrimPrefix(s, "ET_")
	}
	return fmt.Sprintf("unknown (%#x)", uint16(t))
}

// MachineName names a machine architecture.
func MachineName(m elf.Machine) string {
	if s := m.String(); strings.HasPrefix(s, "EM_") {
		return strings.TrimPrefix(s, "EM_")
	}
	return fmt.Sprintf("unknown (%#x)", uint16(m))
}

// SectionTypeName names a section type, collapsing the reserved OS, processor
// and application ranges to labeled raw values.
func SectionTypeName(t elf.SectionType) string {
	if s := t.String(); strings.HasPrefix(s, "SHT_") && !strings.Contains(s, "+") {
		return strings.TrimPrefix(s, "SHT_")
	}
	switch {
	case t >= elf.SHT_LOOS && t <= elf.SHT_HIOS:
		return fmt.Sprintf("OS-specific (%#x)", uint32(t))
	case t >= elf.SHT_LOPROC && t <= elf.SHT_HIPROC:
		return fmt.Sprintf("processor-specific (%#x)", uint32(t))
	case t >= elf.SHT_LOUSER:
		return fmt.Sprintf("application-specific (%#x)", uint32(t))
	default:
		return fmt.Sprintf("unknown (%#x)", uint32(t))
	}
}

// sectionFlagLetters follows the readelf key: each known flag contributes one
// letter, in a fixed order.
var sectionFlagLetters = []struct {
	flag   elf.SectionFlag
	letter string
}{
	{elf.SHF_WRITE, "W"},
	{elf.SHF_ALLOC, "A"},
	{elf.SHF_EXECINSTR, "X"},
	{elf.SHF_MERGE, "M"},
	{elf.SHF_STRINGS, "S"},
	{elf.SHF_INFO_LINK, "I"},
	{elf.SHF_LINK_ORDER, "L"},
	{elf.SHF_OS_NONCONFORMING, "O"},
	{elf.SHF_GROUP, "G"},
	{elf.SHF_TLS, "T"},
	{elf.SHF_COMPRESSED, "C"},
}

// SectionFlagString renders section flags as readelf-style key letters.
func SectionFlagString(f elf.SectionFlag) string {
	var b strings.Builder
	for _, fl := range sectionFlagLetters {
		if f&fl.flag != 0 {
			b.WriteString(fl.letter)
		}
	}
	if f&elf.SHF_MASKOS != 0 {
		b.WriteString("o")
	}
	if f&elf.SHF_MASKPROC != 0 {
		b.WriteString("p")
	}
	return b.String()
}

// SegmentFlagString renders segment permissions as an rwx triad, with any OS
// or processor mask bits appended raw.
func SegmentFlagString(f elf.ProgFlag) string {
	var b strings.Builder
	for _, fl := range []struct {
		flag   elf.ProgFlag
		letter string
	}{
		{elf.PF_R, "R"},
		{elf.PF_W, "W"},
		{elf.PF_X, "E"},
	} {
		if f&fl.flag != 0 {
			b.WriteString(fl.letter)
		} else {
			b.WriteString("-")
		}
	}
	if masked := f & (elf.PF_MASKOS | elf.PF_MASKPROC); masked != 0 {
		fmt.Fprintf(&b, " (+%#x)", uint32(masked))
	}
	return b.String()
}

// SegmentTypeName names a program header type.
func SegmentTypeName(t elf.ProgType) string {
	if s := t.String(); strings.HasPrefix(s, "PT_") && !strings.Contains(s, "+") {
		return strings.TrimPrefix(s, "PT_")
	}
	switch {
	case t >= elf.PT_LOOS && t <= elf.PT_HIOS:
		return fmt.Sprintf("OS-specific (%#x)", uint32(t))
	case t >= elf.PT_LOPROC:
		return fmt.Sprintf("processor-specific (%#x)", uint32(t))
	default:
		return fmt.Sprintf("unknown (%#x)", uint32(t))
	}
}

// SymBindName names a symbol binding.
func SymBindName(b elf.SymBind) string {
	if s := b.String(); strings.HasPrefix(s, "STB_") {
		return strings.TrimPrefix(s, "STB_")
	}
	return fmt.Sprintf("unknown (%d)", int(b))
}

// SymTypeName names a symbol type.
func SymTypeName(t elf.SymType) string {
	if s := t.String(); strings.HasPrefix(s, "STT_") {
		return strings.TrimPrefix(s, "STT_")
	}
	return fmt.Sprintf("unknown (%d)", int(t))
}

// SymVisName names a symbol visibility.
func SymVisName(v elf.SymVis) string {
	if s := v.String(); strings.HasPrefix(s, "STV_") {
		return strings.TrimPrefix(s, "STV_")
	}
	return fmt.Sprintf("unknown (%d)", int(v))
}

// SectionIndexName names a symbol's section index, resolving the reserved
// values to their mnemonic.
func SectionIndexName(i elf.SectionIndex) string {
	switch i {
	case elf.SHN_UNDEF:
		return "UND"
	case elf.SHN_ABS:
		return "ABS"
	case elf.SHN_COMMON:
		return "COM"
	case elf.SHN_XINDEX:
		return "XINDEX"
	}
	if i >= elf.SHN_LORESERVE {
		return fmt.Sprintf("reserved (%#x)", uint16(i))
	}
	return fmt.Sprintf("%d", int(i))
}

// SymValueKind says how a symbol's value should be read, which depends on the
// file type: relocatables store section offsets (or the required alignment,
// for commons), linked objects store virtual addresses.
func SymValueKind(ftype elf.Type, shndx elf.SectionIndex) string {
	switch ftype {
	case elf.ET_REL:
		if shndx == elf.SHN_COMMON {
			return "align"
		}
		return "offset"
	case elf.ET_EXEC, elf.ET_DYN, elf.ET_CORE:
		return "vaddr"
	default:
		return "value"
	}
}

// DynTagName names a dynamic entry tag.
func DynTagName(t elf.DynTag) string {
	if s := t.String(); strings.HasPrefix(s, "DT_") && !strings.Contains(s, "+") {
		return strings.TrimPrefix(s, "DT_")
	}
	return fmt.Sprintf("unknown (%#x)", uint64(t))
}

// NoteTypeName names a note type for the given note owner.
func NoteTypeName(owner string, typ uint32) string {
	if owner == "GNU" {
		switch typ {
		case elffile.NoteGNUABITag:
			return "GNU_ABI_TAG"
		case elffile.NoteGNUBuildID:
			return "GNU_BUILD_ID"
		case elffile.NoteGNUGoldVer:
			return "GNU_GOLD_VERSION"
		case elffile.NoteGNUProperty:
			return "GNU_PROPERTY_TYPE_0"
		}
	}
	return fmt.Sprintf("%#x", typ)
}
