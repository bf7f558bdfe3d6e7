// Package symbols decodes the binary symbol files written by the asm68k
// assembler into symbol entries and per file address tables.
package symbols

import (
	"fmt"
	"strings"

	"github.com/retroenv/mddebug/internal/loader"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/exp/slices"
)

// Table is the decoded content of a symbol file.
type Table struct {
	logger *log.Logger
	format Format

	assembledFile string
	symbols       []SymbolEntry
	sections      []*FilenameSection
	index         *index
}

// New returns an empty table that decodes files using the given format.
func New(logger *log.Logger, format Format) *Table {
	return &Table{
		logger: logger,
		format: format,
		index:  newIndex(),
	}
}

// Format returns the chunk layout the table decodes.
func (t *Table) Format() Format {
	return t.format
}

// Read loads and decodes the symbol file. On failure the error is logged and
// the table is left empty.
func (t *Table) Read(path string) error {
	data, err := loader.ReadFile(path)
	if err != nil {
		t.reset()
		t.logger.Error("Reading symbol file failed", log.String("file", path), log.Err(err))
		return fmt.Errorf("reading symbol file: %w", err)
	}

	if err := t.Parse(data); err != nil {
		t.logger.Error("Decoding symbol file failed", log.String("file", path), log.Err(err))
		return err
	}

	t.logger.Debug("Symbol file loaded",
		log.String("file", path),
		log.String("format", t.format.String()),
		log.Int("symbols", len(t.symbols)),
		log.Int("files", len(t.sections)),
		log.Int("addresses", t.index.Len()))
	return nil
}

// Parse decodes a symbol file from memory. The previous content is replaced
// only if the complete stream decodes without error, otherwise the table is
// left empty.
func (t *Table) Parse(data []byte) error {
	result, err := decode(t.format, data)
	if err != nil {
		t.reset()
		return fmt.Errorf("decoding symbol file: %w", err)
	}

	idx, err := buildIndex(result.sections)
	if err != nil {
		t.reset()
		return fmt.Errorf("building address index: %w", err)
	}

	t.assembledFile = result.assembledFile
	t.symbols = result.symbols
	t.sections = result.sections
	t.index = idx
	return nil
}

func (t *Table) reset() {
	t.assembledFile = ""
	t.symbols = nil
	t.sections = nil
	t.index = newIndex()
}

// Address returns the address of the first entry of the file whose line range
// contains the line. The filename comparison ignores case. 0 is returned if
// the line is not mapped.
func (t *Table) Address(filename string, line int) uint32 {
	for _, section := range t.sections {
		if !strings.EqualFold(section.Filename, filename) {
			continue
		}
		for _, entry := range section.Addresses {
			if entry.Contains(line) {
				return entry.Address
			}
		}
		return 0
	}
	return 0
}

// FileLine returns the source position of the address, or an empty filename
// and line 0 if the address is not mapped.
func (t *Table) FileLine(address uint32) (string, int) {
	item, ok := t.index.Get(address)
	if !ok {
		return "", 0
	}
	return item.Filename, item.Line
}

// IsAmbiguous returns whether more than one source file claimed the address.
// FileLine reports the file that claimed it first.
func (t *Table) IsAmbiguous(address uint32) bool {
	return t.index.IsAmbiguous(address)
}

// AssembledFile returns the name of the file that was passed to the assembler.
func (t *Table) AssembledFile() string {
	return t.assembledFile
}

// Symbols returns the symbols in file order.
func (t *Table) Symbols() []SymbolEntry {
	return t.symbols
}

// SymbolsByAddress returns a copy of the symbols sorted by address, symbols
// sharing an address keep their file order.
func (t *Table) SymbolsByAddress() []SymbolEntry {
	sorted := slices.Clone(t.symbols)
	slices.SortStableFunc(sorted, func(a, b SymbolEntry) bool {
		return a.Address < b.Address
	})
	return sorted
}

// Lookup returns the first symbol with the given name.
func (t *Table) Lookup(name string) (SymbolEntry, bool) {
	i := slices.IndexFunc(t.symbols, func(sym SymbolEntry) bool {
		return sym.Name == name
	})
	if i < 0 {
		return SymbolEntry{}, false
	}
	return t.symbols[i], true
}

// Sections returns the per file address tables in the order the files were
// first referenced.
func (t *Table) Sections() []FilenameSection {
	sections := make([]FilenameSection, 0, len(t.sections))
	for _, section := range t.sections {
		sections = append(sections, *section)
	}
	return sections
}

// Files returns the names of all source files with address tables.
func (t *Table) Files() []string {
	files := make([]string, 0, len(t.sections))
	for _, section := range t.sections {
		files = append(files, section.Filename)
	}
	return files
}
