// Package assembler defines the supported assemblers and the files they
// produce for debugging.
package assembler

const (
	Asm68k = "asm68k"
)

// Outputs are the files an assembler run writes next to the ROM image.
type Outputs struct {
	Binary  string
	Symbols string
	Listing string
}
