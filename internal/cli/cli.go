// Package cli handles command line interface logic
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/retroenv/mddebug/internal/assembler"
	"github.com/retroenv/mddebug/internal/options"
	"github.com/retroenv/mddebug/internal/symbols"
)

// ParseFlags parses command line flags and returns the program options.
func ParseFlags() (options.Program, error) {
	return parseArgs(os.Args[0], os.Args[1:])
}

func parseArgs(name string, arguments []string) (options.Program, error) {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(arguments)
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Source == "") {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, err
	}

	if opts.Source == "" {
		opts.Source = args[0]
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: mddebug [options] <assembler source file>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg != "" && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after source file, please pass the source file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Format = strings.ToLower(strings.TrimSpace(opts.Format))
	if opts.Format != "" {
		if _, err := symbols.ParseFormat(opts.Format); err != nil {
			return fmt.Errorf("%w. Valid options: %s, %s", err, symbols.FormatStandardName, symbols.FormatFullName)
		}
	}

	if opts.LegacyVersions != "" && opts.AssemblerVersion == "" {
		return errors.New("-legacyver needs the assembler version given with -asmver")
	}
	if opts.Watch && opts.Verify {
		return errors.New("-verify can not be combined with -watch")
	}
	if opts.Assembler == "" {
		opts.Assembler = assembler.Asm68k
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Source, "i", "", "name of the assembler source file")
	flags.StringVar(&opts.Symbols, "sym", "", "name of the binary symbol file, defaults to the source name with .sym extension")
	flags.StringVar(&opts.Listing, "lst", "", "name of the listing file, defaults to the source name with .lst extension")
	flags.StringVar(&opts.BasePath, "base", "", "directory to resolve included files in, defaults to the source directory")
	flags.StringVar(&opts.Binary, "bin", "", "name of the ROM file to write when assembling, defaults to the source name with .bin extension")
	flags.StringVar(&opts.Format, "format", "", "symbol file format (standard/full), detected from -asmver and -legacyver if not given")
	flags.StringVar(&opts.AssemblerVersion, "asmver", "", "version of the assembler that created the symbol file")
	flags.StringVar(&opts.LegacyVersions, "legacyver", "", "assembler version range that writes the full symbol format, for example '< 2.0'")
	flags.BoolVar(&opts.Assemble, "assemble", false, "run the assembler to create the symbol and listing files first")
	flags.StringVar(&opts.Assembler, "asm", assembler.Asm68k, "assembler executable to run")
	flags.StringVar(&opts.AssemblerArgs, "asmargs", "", "extra options to pass to the assembler")
	flags.BoolVar(&opts.Verify, "verify", false, "verify that the symbol file and the listing agree")
	flags.BoolVar(&opts.Watch, "watch", false, "keep running and reload when the assembler output changes")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.StringVar(&opts.Addresses, "addr", "", "comma separated list of addresses to resolve, for example 0x200,$204")
	flags.StringVar(&opts.Lines, "line", "", "comma separated list of file:line positions to resolve")
	flags.BoolVar(&opts.ListSymbols, "symbols", false, "print the symbol table sorted by address")
}
