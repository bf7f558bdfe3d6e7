// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Source   string `flag:"i" usage:"assembler source file"`
	Symbols  string `flag:"sym" usage:"binary symbol file (default: source with .sym extension)"`
	Listing  string `flag:"lst" usage:"listing file (default: source with .lst extension)"`
	BasePath string `flag:"base" usage:"directory to resolve includes in (default: source directory)"`
	Binary   string `flag:"bin" usage:"ROM file written when assembling (default: source with .bin extension)"`
}

// Flags contains behavior options.
type Flags struct {
	Format           string `flag:"format" usage:"symbol file format: standard, full (default: detect from -asmver and -legacyver)"`
	AssemblerVersion string `flag:"asmver" usage:"version of the assembler that wrote the symbol file"`
	LegacyVersions   string `flag:"legacyver" usage:"assembler version range writing the full symbol format, for example '< 2.0'"`
	Assemble         bool   `flag:"assemble" usage:"run the assembler before loading its output"`
	Assembler        string `flag:"asm" usage:"assembler executable"`
	AssemblerArgs    string `flag:"asmargs" usage:"extra assembler options"`
	Verify           bool   `flag:"verify" usage:"cross check symbol file and listing mapping"`
	Watch            bool   `flag:"watch" usage:"reload when the assembler output changes"`
	Debug            bool   `flag:"debug" usage:"enable debug logging"`
	Quiet            bool   `flag:"q" usage:"quiet mode"`
}

// Queries contains the lookups to run against the loaded mapping.
type Queries struct {
	Addresses   string `flag:"addr" usage:"comma separated addresses to resolve to file and line"`
	Lines       string `flag:"line" usage:"comma separated file:line positions to resolve to addresses"`
	ListSymbols bool   `flag:"symbols" usage:"print the symbol table sorted by address"`
}

// Program options of the debug information tool.
type Program struct {
	Parameters
	Flags
	Queries
}
