package elffile

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors reported while identifying a file. Callers can match these
// with errors.Is to distinguish "not an ELF" from "ELF we cannot decode".
var (
	ErrBadMagic     = errors.New("bad magic number, not an ELF file")
	ErrUnknownClass = errors.New("unknown ELF class")
	ErrUnknownData  = errors.New("unknown ELF data encoding")
)

// FormatError describes a structural problem found while decoding an ELF
// image, anchored to the file offset where decoding failed.
type FormatError struct {
	Off int64
	Msg string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid ELF at offset %#x: %s", e.Off, e.Msg)
}

func formatErrorf(off uint64, format string, args ...interface{}) error {
	return &FormatError{Off: int64(off), Msg: fmt.Sprintf(format, args...)}
}
