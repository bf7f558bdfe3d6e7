package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/retroenv/mddebug/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

//nolint:funlen // test functions can be long
func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "default flags",
			args: []string{"prog", "main.asm"},
			want: options.Program{
				Parameters: options.Parameters{Source: "main.asm"},
				Flags:      options.Flags{Assembler: "asm68k"},
			},
		},
		{
			name: "input flag instead of positional",
			args: []string{"prog", "-i", "main.asm"},
			want: options.Program{
				Parameters: options.Parameters{Source: "main.asm"},
				Flags:      options.Flags{Assembler: "asm68k"},
			},
		},
		{
			name: "explicit files",
			args: []string{"prog", "-sym", "out.sym", "-lst", "out.lst", "-base", "inc", "main.asm"},
			want: options.Program{
				Parameters: options.Parameters{Source: "main.asm", Symbols: "out.sym", Listing: "out.lst", BasePath: "inc"},
				Flags:      options.Flags{Assembler: "asm68k"},
			},
		},
		{
			name: "format is normalized",
			args: []string{"prog", "-format", "FULL", "main.asm"},
			want: options.Program{
				Parameters: options.Parameters{Source: "main.asm"},
				Flags:      options.Flags{Format: "full", Assembler: "asm68k"},
			},
		},
		{
			name: "assembler version with legacy range",
			args: []string{"prog", "-asmver", "1.9", "-legacyver", "< 2.0", "main.asm"},
			want: options.Program{
				Parameters: options.Parameters{Source: "main.asm"},
				Flags:      options.Flags{AssemblerVersion: "1.9", LegacyVersions: "< 2.0", Assembler: "asm68k"},
			},
		},
		{
			name: "watch while assembling",
			args: []string{"prog", "-watch", "-assemble", "main.asm"},
			want: options.Program{
				Parameters: options.Parameters{Source: "main.asm"},
				Flags:      options.Flags{Watch: true, Assemble: true, Assembler: "asm68k"},
			},
		},
		{
			name: "queries",
			args: []string{"prog", "-addr", "0x200,$204", "-line", "main.asm:3", "-symbols", "main.asm"},
			want: options.Program{
				Parameters: options.Parameters{Source: "main.asm"},
				Flags:      options.Flags{Assembler: "asm68k"},
				Queries:    options.Queries{Addresses: "0x200,$204", Lines: "main.asm:3", ListSymbols: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			got, err := ParseFlags()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantUsage bool
	}{
		{
			name:      "missing source file",
			args:      []string{},
			wantUsage: true,
		},
		{
			name:      "flag after source file",
			args:      []string{"main.asm", "-q"},
			wantUsage: true,
		},
		{
			name: "unsupported format",
			args: []string{"-format", "elf", "main.asm"},
		},
		{
			name: "verify with watch",
			args: []string{"-verify", "-watch", "main.asm"},
		},
		{
			name: "legacy range without assembler version",
			args: []string{"-legacyver", "< 2.0", "main.asm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs("prog", tt.args)
			assert.Error(t, err)

			var usageErr *UsageError
			assert.Equal(t, tt.wantUsage, errors.As(err, &usageErr))
		})
	}
}
