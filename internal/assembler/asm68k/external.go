// Package asm68k runs the asm68k assembler to create a ROM image together with
// the symbol and listing files used for source level debugging.
package asm68k

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/retroenv/mddebug/internal/assembler"
)

const assemblerName = assembler.Asm68k

// defaultOptions selects pure binary output.
var defaultOptions = []string{"/p"}

// Config holds the assembler invocation settings.
type Config struct {
	Executable string // defaults to asm68k
	Options    string // extra options, space separated
	Source     string
	Outputs    assembler.Outputs
}

// Arguments returns the command line arguments for the assembler. asm68k
// takes the source and output files as one comma separated list.
func Arguments(conf Config) []string {
	args := make([]string, 0, len(defaultOptions)+4)
	args = append(args, defaultOptions...)
	args = append(args, strings.Fields(conf.Options)...)

	files := []string{
		conf.Source,
		conf.Outputs.Binary,
		conf.Outputs.Symbols,
		conf.Outputs.Listing,
	}
	args = append(args, strings.Join(files, ","))
	return args
}

// AssembleUsingExternalApp calls the external assembler to generate the ROM,
// symbol and listing files of the given source file.
func AssembleUsingExternalApp(ctx context.Context, conf Config) error {
	executable := conf.Executable
	if executable == "" {
		executable = assemblerName
	}
	if runtime.GOOS == "windows" && filepath.Ext(executable) == "" {
		executable += ".exe"
	}

	if _, err := exec.LookPath(executable); err != nil {
		return fmt.Errorf("%s is not installed", executable)
	}

	cmd := exec.CommandContext(ctx, executable, Arguments(conf)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembling file: %s: %w", strings.TrimSpace(string(out)), err)
	}

	return nil
}
