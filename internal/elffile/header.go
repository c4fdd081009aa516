package elffile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

const (
	headerSize64 = 64
	headerSize32 = 52
)

func (f *File) parseHeader64() error {
	b, err := f.slice(0, headerSize64)
	if err != nil {
		return err
	}

	var hdr elf.Header64
	if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &hdr); err != nil {
		return formatErrorf(0, "decode file header: %v", err)
	}

	f.Header.Type = elf.Type(hdr.Type)
	f.Header.Machine = elf.Machine(hdr.Machine)
	f.Header.Version = hdr.Version
	f.Header.Entry = hdr.Entry
	f.Header.Phoff = hdr.Phoff
	f.Header.Shoff = hdr.Shoff
	f.Header.Flags = hdr.Flags
	f.Header.Ehsize = hdr.Ehsize
	f.Header.Phentsize = hdr.Phentsize
	f.Header.Phnum = int(hdr.Phnum)
	f.Header.Shentsize = hdr.Shentsize
	f.Header.Shnum = int(hdr.Shnum)
	f.Header.Shstrndx = int(hdr.Shstrndx)
	return nil
}

func (f *File) parseHeader32() error {
	b, err := f.slice(0, headerSize32)
	if err != nil {
		return err
	}

	var hdr elf.Header32
	if err := binary.Read(bytes.NewReader(b), f.ByteOrder, &hdr); err != nil {
		return formatErrorf(0, "decode file header: %v", err)
	}

	f.Header.Type = elf.Type(hdr.Type)
	f.Header.Machine = elf.Machine(hdr.Machine)
	f.Header.Version = hdr.Version
	f.Header.Entry = uint64(hdr.Entry)
	f.Header.Phoff = uint64(hdr.Phoff)
	f.Header.Shoff = uint64(hdr.Shoff)
	f.Header.Flags = hdr.Flags
	f.Header.Ehsize = hdr.Ehsize
	f.Header.Phentsize = hdr.Phentsize
	f.Header.Phnum = int(hdr.Phnum)
	f.Header.Shentsize = hdr.Shentsize
	f.Header.Shnum = int(hdr.Shnum)
	f.Header.Shstrndx = int(hdr.Shstrndx)
	return nil
}
