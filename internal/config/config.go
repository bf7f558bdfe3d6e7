// Package config handles application configuration and setup
package config

import (
	"path/filepath"
	"strings"

	"github.com/retroenv/mddebug/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// File extensions of the assembler output, matching what asm68k writes
// when given only output base names.
const (
	SymbolsExt = ".sym"
	ListingExt = ".lst"
	BinaryExt  = ".bin"
)

// Paths are the resolved input and output files of a run.
type Paths struct {
	Source   string
	Symbols  string
	Listing  string
	BasePath string
	Binary   string
}

// CreateLogger creates a logger with appropriate settings. Debug logging
// takes precedence over quiet mode.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// ResolvePaths fills in the files not given on the command line. Symbol,
// listing and binary files default to siblings of the source file, includes
// are resolved relative to the source directory.
func ResolvePaths(opts options.Program) Paths {
	paths := Paths{
		Source:   opts.Source,
		Symbols:  opts.Symbols,
		Listing:  opts.Listing,
		BasePath: opts.BasePath,
		Binary:   opts.Binary,
	}

	if paths.Symbols == "" {
		paths.Symbols = ReplaceExt(opts.Source, SymbolsExt)
	}
	if paths.Listing == "" {
		paths.Listing = ReplaceExt(opts.Source, ListingExt)
	}
	if paths.Binary == "" {
		paths.Binary = ReplaceExt(opts.Source, BinaryExt)
	}
	if paths.BasePath == "" {
		paths.BasePath = filepath.Dir(opts.Source)
	}
	return paths
}

// ReplaceExt returns the file name with its extension replaced. Upper case
// file names get an upper case extension.
func ReplaceExt(name, ext string) string {
	current := filepath.Ext(name)
	base := name[:len(name)-len(current)]
	if current != "" && current == strings.ToUpper(current) && current != strings.ToLower(current) {
		ext = strings.ToUpper(ext)
	}
	return base + ext
}
