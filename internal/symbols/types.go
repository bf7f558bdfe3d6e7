package symbols

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSymbolFile is returned when the chunk stream of a symbol file
// is truncated or contains an unknown chunk.
var ErrMalformedSymbolFile = errors.New("malformed symbol file")

// ChunkID is the tag byte following the payload of every chunk header.
type ChunkID uint8

// Chunk tags written by the assembler.
const (
	ChunkSymbol           ChunkID = 0x02
	ChunkAddress          ChunkID = 0x80
	ChunkAddressWithCount ChunkID = 0x82
	ChunkFilename         ChunkID = 0x88
	ChunkEndOfSection     ChunkID = 0x8A
)

const (
	fileHeaderSize = 8

	// assembledFileFlag marks the filename chunk naming the file passed to
	// the assembler on the command line.
	assembledFileFlag = 1
)

func (id ChunkID) String() string {
	switch id {
	case ChunkSymbol:
		return "symbol"
	case ChunkAddress:
		return "address"
	case ChunkAddressWithCount:
		return "address with count"
	case ChunkFilename:
		return "filename"
	case ChunkEndOfSection:
		return "end of section"
	default:
		return fmt.Sprintf("unknown chunk 0x%02X", uint8(id))
	}
}

// Format selects how the chunk stream is interpreted.
type Format int

const (
	// FormatStandard treats 0x8A as an end of section marker and tracks
	// filename chunk line numbers relative to a running counter.
	FormatStandard Format = iota
	// FormatFull is the legacy layout: filename chunks carry absolute line
	// numbers and 0x8A starts a trailing symbol table.
	FormatFull
)

// Format names as used on the command line.
const (
	FormatStandardName = "standard"
	FormatFullName     = "full"
)

func (f Format) String() string {
	switch f {
	case FormatStandard:
		return FormatStandardName
	case FormatFull:
		return FormatFullName
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat returns the format matching the given name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case FormatStandardName:
		return FormatStandard, nil
	case FormatFullName, "legacy":
		return FormatFull, nil
	default:
		return FormatStandard, fmt.Errorf("unsupported symbol format '%s'", name)
	}
}

// SymbolEntry is a label emitted by the assembler.
type SymbolEntry struct {
	Address uint32
	Name    string
}

// AddressEntry attributes a range of source lines to an instruction address.
type AddressEntry struct {
	Address  uint32
	Flags    uint8
	LineFrom int32
	LineTo   int32
}

// Contains returns whether the line is inside the entry's line range.
func (e AddressEntry) Contains(line int) bool {
	return int(e.LineFrom) <= line && line <= int(e.LineTo)
}

// FilenameSection is the address table of a single source file.
type FilenameSection struct {
	Filename  string
	Addresses []AddressEntry
}

// FileLine is a resolved source position.
type FileLine struct {
	Filename string
	Line     int
}
