package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/mddebug/internal/assembler/asm68k"
	"github.com/retroenv/mddebug/internal/options"
	"github.com/retroenv/mddebug/internal/symbols"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

var testSource = "start:\n  move.l #1,d0\n  nop"

var testListing = "" +
	"00001000                            start:\n" +
	"00001000 203C 0000 0001               move.l #1,d0\n" +
	"00001006 4E71                         nop"

// testSymbols is a symbol file for main.asm with the code at $1000 and $1006
// and a start label.
var testSymbols = []byte{
	0, 0, 0, 0, 0, 0, 0, 0,
	0x00, 0x10, 0x00, 0x00, 0x88, 2, 0, 0, 0x00, 0x08, 'm', 'a', 'i', 'n', '.', 'a', 's', 'm',
	0x06, 0x10, 0x00, 0x00, 0x80,
	0x00, 0x10, 0x00, 0x00, 0x02, 5, 's', 't', 'a', 'r', 't',
}

func writeProject(t *testing.T, withSymbols, withListing bool) string {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "main.asm")
	assert.NoError(t, os.WriteFile(source, []byte(testSource), 0600))
	if withSymbols {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "main.sym"), testSymbols, 0600))
	}
	if withListing {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, "main.lst"), []byte(testListing), 0600))
	}
	return source
}

func TestNew(t *testing.T) {
	logger := log.NewTestLogger(t)
	p := New(logger)

	assert.NotNil(t, p)
	assert.NotNil(t, p.logger)
	assert.NotNil(t, p.detector)
	assert.NotNil(t, p.assemble)
}

//nolint:funlen // test functions can be long
func TestExecute(t *testing.T) {
	t.Run("symbols and listing", func(t *testing.T) {
		source := writeProject(t, true, true)
		p := New(log.NewTestLogger(t))

		opts := options.Program{Parameters: options.Parameters{Source: source}}
		result, err := p.Execute(context.Background(), opts)
		assert.NoError(t, err)

		assert.NotNil(t, result.Symbols)
		assert.NotNil(t, result.Listing)
		assert.Equal(t, []string{SymbolsMapping, ListingMapping}, result.Mapping.Names())
		assert.Equal(t, symbols.FormatStandard, result.Format)

		file, line := result.Mapping.FileLine(0x1006)
		assert.Equal(t, "main.asm", file)
		assert.Equal(t, 3, line)

		assert.Equal(t, uint32(0x1006), result.Listing.LineAddress(2))
		assert.Equal(t, 2, result.Listing.SourceLine(0x1006))
	})

	t.Run("listing only", func(t *testing.T) {
		source := writeProject(t, false, true)
		p := New(log.NewTestLogger(t))

		opts := options.Program{Parameters: options.Parameters{Source: source}}
		result, err := p.Execute(context.Background(), opts)
		assert.NoError(t, err)

		assert.Nil(t, result.Symbols)
		assert.Equal(t, []string{ListingMapping}, result.Mapping.Names())

		file, line := result.Mapping.FileLine(0x1006)
		assert.Equal(t, source, file)
		assert.Equal(t, 3, line)
	})

	t.Run("no debug information", func(t *testing.T) {
		source := writeProject(t, false, false)
		p := New(log.NewTestLogger(t))

		opts := options.Program{Parameters: options.Parameters{Source: source}}
		_, err := p.Execute(context.Background(), opts)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoDebugInfo))
	})

	t.Run("invalid format option", func(t *testing.T) {
		source := writeProject(t, true, true)
		p := New(log.NewTestLogger(t))

		opts := options.Program{
			Parameters: options.Parameters{Source: source},
			Flags:      options.Flags{Format: "elf"},
		}
		_, err := p.Execute(context.Background(), opts)
		assert.Error(t, err)
	})

	t.Run("verify", func(t *testing.T) {
		source := writeProject(t, true, true)
		p := New(log.NewTestLogger(t))

		opts := options.Program{
			Parameters: options.Parameters{Source: source},
			Flags:      options.Flags{Verify: true},
		}
		_, err := p.Execute(context.Background(), opts)
		assert.NoError(t, err)
	})

	t.Run("verify without symbols", func(t *testing.T) {
		source := writeProject(t, false, true)
		p := New(log.NewTestLogger(t))

		opts := options.Program{
			Parameters: options.Parameters{Source: source},
			Flags:      options.Flags{Verify: true},
		}
		_, err := p.Execute(context.Background(), opts)
		assert.Error(t, err)
	})
}

func TestExecuteAssemble(t *testing.T) {
	source := writeProject(t, false, false)
	p := New(log.NewTestLogger(t))

	var called asm68k.Config
	p.assemble = func(ctx context.Context, conf asm68k.Config) error {
		called = conf
		if err := os.WriteFile(conf.Outputs.Symbols, testSymbols, 0600); err != nil {
			return err
		}
		return os.WriteFile(conf.Outputs.Listing, []byte(testListing), 0600)
	}

	opts := options.Program{
		Parameters: options.Parameters{Source: source},
		Flags:      options.Flags{Assemble: true, Assembler: "asm68k", AssemblerArgs: "/k"},
	}
	result, err := p.Execute(context.Background(), opts)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Mapping.Len())

	assert.Equal(t, source, called.Source)
	assert.Equal(t, "/k", called.Options)
	assert.Equal(t, filepath.Join(filepath.Dir(source), "main.bin"), called.Outputs.Binary)

	p.assemble = func(context.Context, asm68k.Config) error {
		return errors.New("exit status 1")
	}
	_, err = p.Execute(context.Background(), opts)
	assert.ErrorContains(t, err, "running assembler")
}

func TestExecuteCancelled(t *testing.T) {
	source := writeProject(t, true, true)
	p := New(log.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := options.Program{Parameters: options.Parameters{Source: source}}
	_, err := p.Execute(ctx, opts)
	assert.True(t, errors.Is(err, context.Canceled))
}
