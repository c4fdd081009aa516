package elffile

import (
	"debug/elf"
	"encoding/hex"
	"strings"
)

// GNU note types. debug/elf only names the core-dump note types, so the
// vendor-specific ones are spelled out here.
const (
	NoteGNUABITag   uint32 = 1
	NoteGNUBuildID  uint32 = 3
	NoteGNUGoldVer  uint32 = 4
	NoteGNUProperty uint32 = 5
)

// Note is one entry of an SHT_NOTE section.
type Note struct {
	Section string `json:"section"`
	Name    string `json:"name"`
	Type    uint32 `json:"type"`
	Desc    []byte `json:"desc"`
}

// parseNotes walks every SHT_NOTE section. Notes are a vendor playground, so
// a malformed note terminates its own section's walk without failing the load.
func (f *File) parseNotes() error {
	for _, s := range f.Sections {
		if s.Type != elf.SHT_NOTE {
			continue
		}
		data, err := f.SectionData(s)
		if err != nil {
			return err
		}
		f.Notes = append(f.Notes, parseNoteEntries(s.Name, data, f)...)
	}
	return nil
}

func parseNoteEntries(section string, data []byte, f *File) []Note {
	var notes []Note
	for len(data) >= 12 {
		namesz := f.ByteOrder.Uint32(data[0:4])
		descsz := f.ByteOrder.Uint32(data[4:8])
		typ := f.ByteOrder.Uint32(data[8:12])
		data = data[12:]

		nameEnd := align4(uint64(namesz))
		descEnd := nameEnd + align4(uint64(descsz))
		if descEnd < nameEnd || descEnd > uint64(len(data)) {
			break
		}

		name := strings.TrimRight(string(data[:namesz]), "\x00")
		desc := make([]byte, descsz)
		copy(desc, data[nameEnd:nameEnd+uint64(descsz)])
		notes = append(notes, Note{Section: section, Name: name, Type: typ, Desc: desc})

		data = data[descEnd:]
	}
	return notes
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// BuildID returns the GNU build ID as a hex string, or "" when absent.
func (f *File) BuildID() string {
	for _, n := range f.Notes {
		if n.Name == "GNU" && n.Type == NoteGNUBuildID {
			return hex.EncodeToString(n.Desc)
		}
	}
	return ""
}
