package debuginfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/mddebug/internal/listing"
	"github.com/retroenv/mddebug/internal/symbols"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type mockMapping struct {
	lines     map[uint32]int
	filename  string
	addresses map[int]uint32
}

func (m mockMapping) FileLine(address uint32) (string, int) {
	line, ok := m.lines[address]
	if !ok {
		return "", 0
	}
	return m.filename, line
}

func (m mockMapping) Address(filename string, line int) uint32 {
	if filename != m.filename {
		return 0
	}
	return m.addresses[line]
}

var (
	_ Mapping = mockMapping{}
	_ Mapping = &Set{}
)

func TestSetPriority(t *testing.T) {
	symbols := mockMapping{
		filename:  "main.asm",
		lines:     map[uint32]int{0x200: 10},
		addresses: map[int]uint32{10: 0x200},
	}
	listing := mockMapping{
		filename:  "main.asm",
		lines:     map[uint32]int{0x200: 9, 0x300: 20},
		addresses: map[int]uint32{9: 0x200, 20: 0x300},
	}

	set := NewSet()
	set.Add("symbols", symbols)
	set.Add("listing", listing)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"symbols", "listing"}, set.Names())

	file, line := set.FileLine(0x200)
	assert.Equal(t, "main.asm", file)
	assert.Equal(t, 10, line)

	file, line = set.FileLine(0x300)
	assert.Equal(t, "main.asm", file)
	assert.Equal(t, 20, line)

	file, line = set.FileLine(0x400)
	assert.Equal(t, "", file)
	assert.Equal(t, 0, line)

	assert.Equal(t, uint32(0x300), set.Address("main.asm", 20))
	assert.Equal(t, uint32(0), set.Address("other.asm", 20))
}

func TestSetReplace(t *testing.T) {
	set := NewSet()
	set.Add("symbols", mockMapping{filename: "old.asm", lines: map[uint32]int{1: 1}})
	set.Add("listing", mockMapping{})
	set.Add("symbols", mockMapping{filename: "new.asm", lines: map[uint32]int{1: 1}})

	assert.Equal(t, []string{"symbols", "listing"}, set.Names())
	file, _ := set.FileLine(1)
	assert.Equal(t, "new.asm", file)
}

func TestEmptySet(t *testing.T) {
	set := NewSet()
	file, line := set.FileLine(0x100)
	assert.Equal(t, "", file)
	assert.Equal(t, 0, line)
	assert.Equal(t, uint32(0), set.Address("main.asm", 1))
}

// TestSetSymbolsAndListing checks that both readers number lines the same way,
// so answers do not shift when the listing fills in for the symbol table.
func TestSetSymbolsAndListing(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "main.asm")
	listingPath := filepath.Join(dir, "main.lst")
	assert.NoError(t, os.WriteFile(sourcePath, []byte("MOVE.L #1,D0\nNOP"), 0600))
	assert.NoError(t, os.WriteFile(listingPath, []byte(
		"00001000 203C0001      MOVE.L #1,D0\n"+
			"00001004 4E71          NOP"), 0600))

	logger := log.NewTestLogger(t)

	// only the first instruction is known to the symbol file
	table := symbols.New(logger, symbols.FormatStandard)
	assert.NoError(t, table.Parse([]byte{
		0, 0, 0, 0, 0, 0, 0, 0,
		0x00, 0x10, 0x00, 0x00, 0x88, 1, 0, 0, 0x00, 0x08, 'm', 'a', 'i', 'n', '.', 'a', 's', 'm',
	}))

	source := listing.New(logger)
	assert.NoError(t, source.Init(sourcePath, listingPath, dir))

	set := NewSet()
	set.Add("symbols", table)
	set.Add("listing", source)

	file, line := set.FileLine(0x1000)
	assert.Equal(t, "main.asm", file)
	assert.Equal(t, 1, line)

	file, line = set.FileLine(0x1004)
	assert.Equal(t, sourcePath, file)
	assert.Equal(t, 2, line)

	assert.Equal(t, uint32(0x1000), set.Address("main.asm", 1))
	assert.Equal(t, uint32(0x1004), set.Address("main.asm", 2))
}
