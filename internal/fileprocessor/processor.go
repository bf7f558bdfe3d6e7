// Package fileprocessor handles loading the debug information of a source
// file and running the requested queries against it.
package fileprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retroenv/mddebug/internal/options"
	"github.com/retroenv/mddebug/internal/pipeline"
	"github.com/retroenv/mddebug/internal/watch"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var errNoSymbols = errors.New("no symbol file loaded")

// Executor builds the debug information of a source file.
type Executor interface {
	Execute(ctx context.Context, opts options.Program) (*pipeline.Result, error)
}

// ProcessFile handles the complete file processing workflow. In watch mode
// the debug information is rebuilt and the queries rerun whenever the
// assembler output changes, until the context is cancelled.
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program, out io.Writer) error {
	p := pipeline.New(logger)

	result, err := process(ctx, logger, p, opts, out)
	if err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	w, err := watch.New(logger, watch.DefaultDelay,
		result.Paths.Source, result.Paths.Symbols, result.Paths.Listing)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	logger.Info("Watching for changes", log.String("source", result.Paths.Source))
	// reload failures are logged by the watcher and the previous output stays valid
	return w.Run(ctx, func(ctx context.Context) error {
		_, err := process(ctx, logger, p, opts, out)
		return err
	})
}

func process(ctx context.Context, logger *log.Logger, p Executor,
	opts options.Program, out io.Writer) (*pipeline.Result, error) {

	result, err := p.Execute(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("building debug information: %w", err)
	}

	PrintSummary(logger, result)

	if err := RunQueries(out, result, opts.Queries); err != nil {
		return nil, fmt.Errorf("running queries: %w", err)
	}
	return result, nil
}

// PrintSummary logs the loaded mappings and the number of mapped code lines
// per file.
func PrintSummary(logger *log.Logger, result *pipeline.Result) {
	logger.Info("Debug information loaded",
		log.String("source", result.Paths.Source),
		log.String("mappings", strings.Join(result.Mapping.Names(), ",")))

	if result.Symbols != nil {
		lines := make(map[string]int)
		for _, section := range result.Symbols.Sections() {
			lines[section.Filename] += len(section.Addresses)
		}
		files := maps.Keys(lines)
		slices.Sort(files)
		for _, file := range files {
			logger.Debug("Symbol file section",
				log.String("file", file),
				log.Int("entries", lines[file]))
		}
		logger.Debug("Symbols", log.Int("count", len(result.Symbols.Symbols())))
	}

	if result.Listing != nil {
		for _, include := range result.Listing.Includes() {
			logger.Debug("Included file",
				log.String("file", include.Name),
				log.Int("listing_line", include.LineNumber+1),
				log.Int("lines", len(include.Content)))
		}
	}
}

// RunQueries writes the answers of all queries to the writer.
func RunQueries(w io.Writer, result *pipeline.Result, queries options.Queries) error {
	if queries.Addresses != "" {
		if err := resolveAddresses(w, result, queries.Addresses); err != nil {
			return err
		}
	}
	if queries.Lines != "" {
		if err := resolveLines(w, result, queries.Lines); err != nil {
			return err
		}
	}
	if queries.ListSymbols {
		if err := listSymbols(w, result); err != nil {
			return err
		}
	}
	return nil
}

func resolveAddresses(w io.Writer, result *pipeline.Result, list string) error {
	for _, s := range splitList(list) {
		address, err := ParseAddress(s)
		if err != nil {
			return err
		}

		file, line := result.Mapping.FileLine(address)
		if file == "" {
			if _, err := fmt.Fprintf(w, "$%08X\tnot mapped\n", address); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			continue
		}

		suffix := ""
		if result.Symbols != nil && result.Symbols.IsAmbiguous(address) {
			suffix = "\t(ambiguous)"
		}
		if _, err := fmt.Fprintf(w, "$%08X\t%s:%d%s\n", address, file, line, suffix); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

func resolveLines(w io.Writer, result *pipeline.Result, list string) error {
	for _, s := range splitList(list) {
		file, line, err := ParsePosition(s)
		if err != nil {
			return err
		}

		address := result.Mapping.Address(file, line)
		if address == 0 {
			if _, err := fmt.Fprintf(w, "%s:%d\tnot mapped\n", file, line); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:%d\t$%08X\n", file, line, address); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

func listSymbols(w io.Writer, result *pipeline.Result) error {
	if result.Symbols == nil {
		return errNoSymbols
	}
	for _, sym := range result.Symbols.SymbolsByAddress() {
		if _, err := fmt.Fprintf(w, "$%08X\t%s\n", sym.Address, sym.Name); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

// ParseAddress parses a hexadecimal address that can be prefixed by 0x or $.
func ParseAddress(s string) (uint32, error) {
	hex := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	case strings.HasPrefix(hex, "$"):
		hex = hex[1:]
	}

	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing address '%s': %w", s, err)
	}
	return uint32(value), nil
}

// ParsePosition parses a file:line position. The last colon separates the
// line so that Windows drive letters are kept in the file name.
func ParsePosition(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid position '%s', expected file:line", s)
	}

	line, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("parsing line of position '%s': %w", s, err)
	}
	return s[:i], line, nil
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// PrintBanner prints application version information.
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("mddebug", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
