package elffile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

const (
	progHeaderSize64 = 56
	progHeaderSize32 = 32
)

func (f *File) progHeaderSize() uint64 {
	if f.Header.Ident.Class == elf.ELFCLASS64 {
		return progHeaderSize64
	}
	return progHeaderSize32
}

// parseSegments decodes the program header table. A zero e_phoff means the
// file has no segments (relocatable objects, typically).
func (f *File) parseSegments() error {
	if f.Header.Phoff == 0 || f.Header.Phnum == 0 {
		return nil
	}
	if uint64(f.Header.Phentsize) < f.progHeaderSize() {
		return formatErrorf(f.Header.Phoff, "program header entry size %d below minimum %d",
			f.Header.Phentsize, f.progHeaderSize())
	}

	segments := make([]*Segment, 0, f.Header.Phnum)
	for i := 0; i < f.Header.Phnum; i++ {
		off := f.Header.Phoff + uint64(i)*uint64(f.Header.Phentsize)
		b, err := f.slice(off, f.progHeaderSize())
		if err != nil {
			return err
		}

		if f.Header.Ident.Class == elf.ELFCLASS64 {
			var ph elf.Prog64
			if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &ph); err != nil {
				return formatErrorf(off, "decode program header %d: %v", i, err)
			}
			segments = append(segments, &Segment{
				Type:   elf.ProgType(ph.Type),
				Flags:  elf.ProgFlag(ph.Flags),
				Offset: ph.Off,
				Vaddr:  ph.Vaddr,
				Paddr:  ph.Paddr,
				Filesz: ph.Filesz,
				Memsz:  ph.Memsz,
				Align:  ph.Align,
			})
			continue
		}

		var ph elf.Prog32
		if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &ph); err != nil {
			return formatErrorf(off, "decode program header %d: %v", i, err)
		}
		segments = append(segments, &Segment{
			Type:   elf.ProgType(ph.Type),
			Flags:  elf.ProgFlag(ph.Flags),
			Offset: uint64(ph.Off),
			Vaddr:  uint64(ph.Vaddr),
			Paddr:  uint64(ph.Paddr),
			Filesz: uint64(ph.Filesz),
			Memsz:  uint64(ph.Memsz),
			Align:  uint64(ph.Align),
		})
	}
	f.Segments = segments
	return nil
}

// SegmentsOfType returns every segment with the given type, in table order.
func (f *File) SegmentsOfType(t elf.ProgType) []*Segment {
	var out []*Segment
	for _, p := range f.Segments {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}
