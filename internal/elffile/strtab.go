package elffile

import "bytes"

// StrTab is an ELF string table: a blob of NUL-terminated strings addressed
// by byte offset. Offsets come from untrusted section and symbol headers, so
// every access is bounds checked.
type StrTab struct {
	data []byte
}

// NewStrTab wraps raw string table bytes.
func NewStrTab(data []byte) StrTab {
	return StrTab{data: data}
}

// EmptyStrTab returns a table with no entries. Lookups against it resolve to
// the empty string, which matches how a missing .strtab/.dynstr behaves.
func EmptyStrTab() StrTab {
	return StrTab{}
}

// Get returns the NUL-terminated string starting at off.
func (t StrTab) Get(off uint32) (string, error) {
	if int64(off) >= int64(len(t.data)) {
		return "", formatErrorf(uint64(off), "string offset %d outside table of %d bytes", off, len(t.data))
	}
	rest := t.data[off:]
	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		return "", formatErrorf(uint64(off), "unterminated string at offset %d", off)
	}
	return string(rest[:i]), nil
}

// Lookup is Get with malformed offsets mapped to "".
func (t StrTab) Lookup(off uint32) string {
	s, err := t.Get(off)
	if err != nil {
		return ""
	}
	return s
}

// Len returns the size of the table in bytes.
func (t StrTab) Len() int {
	return len(t.data)
}
