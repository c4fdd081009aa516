package elffile

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRejectsNonELF(t *testing.T) {
	cases := map[string][]byte{
		"empty":       nil,
		"short":       {0x7f, 'E'},
		"wrong magic": []byte("MZ\x90\x00 this is not an ELF file at all"),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			require.Error(t, err)
		})
	}

	_, err := Parse([]byte("MZ\x90\x00 plus enough padding for an ident block"))
	assert.True(t, errors.Is(err, ErrBadMagic))
}

func TestParseRejectsUnknownClass(t *testing.T) {
	img, _ := buildRichELF64(t)
	img[elf.EI_CLASS] = 9

	_, err := Parse(img)
	assert.True(t, errors.Is(err, ErrUnknownClass))
}

func TestParseRejectsUnknownDataEncoding(t *testing.T) {
	img, _ := buildRichELF64(t)
	img[elf.EI_DATA] = 9

	_, err := Parse(img)
	assert.True(t, errors.Is(err, ErrUnknownData))
}

func TestTruncatedSectionTable(t *testing.T) {
	img, _ := buildRichELF64(t)

	// cut the image in the middle of the section header table
	shoff := binary.LittleEndian.Uint64(img[0x28:0x30])
	_, err := Parse(img[:shoff+sectionHeaderSize64/2])
	require.Error(t, err)

	var ferr *FormatError
	assert.True(t, errors.As(err, &ferr))
}

func TestSectionDataOutsideFile(t *testing.T) {
	b := newImageBuilder(elf.ELFCLASS64, binary.LittleEndian)
	b.addSection(&testSection{name: ".text", typ: elf.SHT_PROGBITS, data: []byte{0xc3}})
	img := b.build(t)

	f, err := Parse(img)
	require.NoError(t, err)

	text := f.Section(".text")
	require.NotNil(t, text)
	text.Size = uint64(len(img)) * 2
	_, err = f.SectionData(text)

	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Contains(t, ferr.Error(), "outside file")
}

// patchSectionSize rewrites the sh_size field of the named section's header
// in a little-endian ELF64 image.
func patchSectionSize(t *testing.T, img []byte, name string, size uint64) {
	t.Helper()

	f, err := Parse(img)
	require.NoError(t, err)

	shoff := binary.LittleEndian.Uint64(img[0x28:0x30])
	for i, s := range f.Sections {
		if s.Name == name {
			binary.LittleEndian.PutUint64(img[shoff+uint64(i)*sectionHeaderSize64+32:], size)
			return
		}
	}
	t.Fatalf("image has no section %s", name)
}

func TestOversizedSectionCount(t *testing.T) {
	b := newImageBuilder(elf.ELFCLASS64, binary.LittleEndian)
	b.extendedNumbering = true
	b.addSection(&testSection{name: ".text", typ: elf.SHT_PROGBITS, data: []byte{0xc3}})
	img := b.build(t)

	// section 0's sh_size carries the real count under extended numbering
	shoff := binary.LittleEndian.Uint64(img[0x28:0x30])
	binary.LittleEndian.PutUint64(img[shoff+32:], 0xffffffffffffffff)

	_, err := Parse(img)
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Contains(t, ferr.Error(), "section count")
}

func TestOversizedHeaderSectionCount(t *testing.T) {
	img, _ := buildRichELF64(t)
	// e_shnum at offset 0x3c claims far more entries than the file holds
	binary.LittleEndian.PutUint16(img[0x3c:], 0xffff)

	_, err := Parse(img)
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Contains(t, ferr.Error(), "section count")
}

func TestOversizedSymbolTable(t *testing.T) {
	img, _ := buildRichELF64(t)
	patchSectionSize(t, img, ".symtab", 0xfffffffffffffff0)

	_, err := Parse(img)
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Contains(t, ferr.Error(), "outside file")
}

func TestOversizedDynamicSection(t *testing.T) {
	img, _ := buildRichELF64(t)
	patchSectionSize(t, img, ".dynamic", uint64(1)<<40)

	_, err := Parse(img)
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
}

func TestMalformedNoteStopsQuietly(t *testing.T) {
	b := newImageBuilder(elf.ELFCLASS64, binary.LittleEndian)
	// descsz claims more bytes than the section holds
	bad := make([]byte, 12)
	binary.LittleEndian.PutUint32(bad[0:4], 4)
	binary.LittleEndian.PutUint32(bad[4:8], 0xffff)
	binary.LittleEndian.PutUint32(bad[8:12], NoteGNUBuildID)
	b.addSection(&testSection{name: ".note.bad", typ: elf.SHT_NOTE, data: bad})

	f, err := Parse(b.build(t))
	require.NoError(t, err)
	assert.Empty(t, f.Notes)
	assert.Equal(t, "", f.BuildID())
}
