package elffile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"
)

// imageBuilder assembles syntactically valid ELF images in memory so tests do
// not depend on host toolchains or checked-in binaries. It handles both
// classes and both byte orders; the NULL section and .shstrtab are implicit.
type imageBuilder struct {
	class   elf.Class
	bo      binary.ByteOrder
	etype   elf.Type
	machine elf.Machine
	entry   uint64
	secs    []*testSection
	segs    []Segment

	// extendedNumbering emits e_shnum=0 / e_shstrndx=SHN_XINDEX with the real
	// values stashed in section 0.
	extendedNumbering bool
}

type testSection struct {
	name      string
	typ       elf.SectionType
	flags     elf.SectionFlag
	data      []byte
	link      uint32
	info      uint32
	entsize   uint64
	addralign uint64
	addr      uint64
}

func newImageBuilder(class elf.Class, bo binary.ByteOrder) *imageBuilder {
	return &imageBuilder{
		class:   class,
		bo:      bo,
		etype:   elf.ET_EXEC,
		machine: elf.EM_X86_64,
		entry:   0x401000,
	}
}

// addSection appends a section and returns the index it will occupy in the
// final section header table (the NULL section is index 0).
func (b *imageBuilder) addSection(s *testSection) uint32 {
	b.secs = append(b.secs, s)
	return uint32(len(b.secs))
}

func (b *imageBuilder) addSegment(p Segment) {
	b.segs = append(b.segs, p)
}

func (b *imageBuilder) build(t *testing.T) []byte {
	t.Helper()

	var ehsize, shentsize, phentsize uint64
	if b.class == elf.ELFCLASS64 {
		ehsize, shentsize, phentsize = headerSize64, sectionHeaderSize64, progHeaderSize64
	} else {
		ehsize, shentsize, phentsize = headerSize32, sectionHeaderSize32, progHeaderSize32
	}

	shstr := []byte{0}
	nameOff := func(name string) uint32 {
		off := uint32(len(shstr))
		shstr = append(shstr, name...)
		shstr = append(shstr, 0)
		return off
	}

	type placement struct {
		off     uint64
		nameIdx uint32
	}

	off := ehsize
	places := make([]placement, len(b.secs))
	for i, s := range b.secs {
		off = (off + 7) &^ 7
		places[i] = placement{off: off, nameIdx: nameOff(s.name)}
		if s.typ != elf.SHT_NOBITS {
			off += uint64(len(s.data))
		}
	}
	shstrNameIdx := nameOff(".shstrtab")
	off = (off + 7) &^ 7
	shstrOff := off
	off += uint64(len(shstr))

	shoff := (off + 7) &^ 7
	nsec := len(b.secs) + 2
	phoff := uint64(0)
	total := shoff + uint64(nsec)*shentsize
	if len(b.segs) > 0 {
		phoff = total
		total += uint64(len(b.segs)) * phentsize
	}

	img := make([]byte, total)
	put := func(at uint64, v interface{}) {
		var buf bytes.Buffer
		if err := binary.Write(&buf, b.bo, v); err != nil {
			t.Fatalf("encode %T: %v", v, err)
		}
		copy(img[at:], buf.Bytes())
	}

	var ident [16]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(b.class)
	if b.bo == binary.LittleEndian {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	} else {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	}
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	ident[elf.EI_OSABI] = byte(elf.ELFOSABI_NONE)

	shnum := uint16(nsec)
	shstrndx := uint16(nsec - 1)
	var sec0Size uint64
	var sec0Link uint32
	if b.extendedNumbering {
		sec0Size = uint64(nsec)
		sec0Link = uint32(nsec - 1)
		shnum = 0
		shstrndx = uint16(elf.SHN_XINDEX)
	}

	if b.class == elf.ELFCLASS64 {
		put(0, elf.Header64{
			Ident:     ident,
			Type:      uint16(b.etype),
			Machine:   uint16(b.machine),
			Version:   uint32(elf.EV_CURRENT),
			Entry:     b.entry,
			Phoff:     phoff,
			Shoff:     shoff,
			Ehsize:    uint16(ehsize),
			Phentsize: uint16(phentsize),
			Phnum:     uint16(len(b.segs)),
			Shentsize: uint16(shentsize),
			Shnum:     shnum,
			Shstrndx:  shstrndx,
		})
	} else {
		put(0, elf.Header32{
			Ident:     ident,
			Type:      uint16(b.etype),
			Machine:   uint16(b.machine),
			Version:   uint32(elf.EV_CURRENT),
			Entry:     uint32(b.entry),
			Phoff:     uint32(phoff),
			Shoff:     uint32(shoff),
			Ehsize:    uint16(ehsize),
			Phentsize: uint16(phentsize),
			Phnum:     uint16(len(b.segs)),
			Shentsize: uint16(shentsize),
			Shnum:     shnum,
			Shstrndx:  shstrndx,
		})
	}

	writeShdr := func(at uint64, nameIdx uint32, s *testSection, dataOff, size uint64, link uint32) {
		var typ elf.SectionType
		var flags elf.SectionFlag
		var info uint32
		var entsize, addralign, addr uint64
		if s != nil {
			typ, flags, info = s.typ, s.flags, s.info
			entsize, addralign, addr = s.entsize, s.addralign, s.addr
		}
		if b.class == elf.ELFCLASS64 {
			put(at, elf.Section64{
				Name: nameIdx, Type: uint32(typ), Flags: uint64(flags),
				Addr: addr, Off: dataOff, Size: size,
				Link: link, Info: info, Addralign: addralign, Entsize: entsize,
			})
		} else {
			put(at, elf.Section32{
				Name: nameIdx, Type: uint32(typ), Flags: uint32(flags),
				Addr: uint32(addr), Off: uint32(dataOff), Size: uint32(size),
				Link: link, Info: info, Addralign: uint32(addralign), Entsize: uint32(entsize),
			})
		}
	}

	writeShdr(shoff, 0, nil, 0, sec0Size, sec0Link)
	for i, s := range b.secs {
		copy(img[places[i].off:], s.data)
		writeShdr(shoff+uint64(i+1)*shentsize, places[i].nameIdx, s, places[i].off, uint64(len(s.data)), s.link)
	}
	copy(img[shstrOff:], shstr)
	writeShdr(shoff+uint64(nsec-1)*shentsize,
		shstrNameIdx,
		&testSection{typ: elf.SHT_STRTAB, addralign: 1},
		shstrOff, uint64(len(shstr)), 0)

	for i, p := range b.segs {
		at := phoff + uint64(i)*phentsize
		if b.class == elf.ELFCLASS64 {
			put(at, elf.Prog64{
				Type: uint32(p.Type), Flags: uint32(p.Flags),
				Off: p.Offset, Vaddr: p.Vaddr, Paddr: p.Paddr,
				Filesz: p.Filesz, Memsz: p.Memsz, Align: p.Align,
			})
		} else {
			put(at, elf.Prog32{
				Type: uint32(p.Type), Off: uint32(p.Offset),
				Vaddr: uint32(p.Vaddr), Paddr: uint32(p.Paddr),
				Filesz: uint32(p.Filesz), Memsz: uint32(p.Memsz),
				Flags: uint32(p.Flags), Align: uint32(p.Align),
			})
		}
	}

	return img
}

// buildStrtab assembles a string table and the offsets its entries landed at.
func buildStrtab(names []string) ([]byte, map[string]uint32) {
	data := []byte{0}
	offs := make(map[string]uint32, len(names))
	for _, n := range names {
		offs[n] = uint32(len(data))
		data = append(data, n...)
		data = append(data, 0)
	}
	return data, offs
}

type testSym struct {
	name  uint32
	info  uint8
	other uint8
	shndx uint16
	value uint64
	size  uint64
}

func encodeSyms(class elf.Class, bo binary.ByteOrder, syms []testSym) []byte {
	var buf bytes.Buffer
	for _, s := range syms {
		if class == elf.ELFCLASS64 {
			binary.Write(&buf, bo, elf.Sym64{
				Name: s.name, Info: s.info, Other: s.other,
				Shndx: s.shndx, Value: s.value, Size: s.size,
			})
		} else {
			binary.Write(&buf, bo, elf.Sym32{
				Name: s.name, Value: uint32(s.value), Size: uint32(s.size),
				Info: s.info, Other: s.other, Shndx: s.shndx,
			})
		}
	}
	return buf.Bytes()
}

func symInfo(bind elf.SymBind, typ elf.SymType) uint8 {
	return uint8(bind)<<4 | uint8(typ)&0xf
}

func encodeDyn(class elf.Class, bo binary.ByteOrder, entries []DynEntry) []byte {
	var buf bytes.Buffer
	entries = append(entries, DynEntry{Tag: elf.DT_NULL})
	for _, e := range entries {
		if class == elf.ELFCLASS64 {
			binary.Write(&buf, bo, elf.Dyn64{Tag: int64(e.Tag), Val: e.Value})
		} else {
			binary.Write(&buf, bo, elf.Dyn32{Tag: int32(e.Tag), Val: uint32(e.Value)})
		}
	}
	return buf.Bytes()
}

func encodeNote(bo binary.ByteOrder, name string, typ uint32, desc []byte) []byte {
	var buf bytes.Buffer
	nameb := append([]byte(name), 0)
	binary.Write(&buf, bo, uint32(len(nameb)))
	binary.Write(&buf, bo, uint32(len(desc)))
	binary.Write(&buf, bo, typ)
	buf.Write(nameb)
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	buf.Write(desc)
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}
