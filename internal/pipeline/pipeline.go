// Package pipeline orchestrates building the debug mapping of a source file.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/retroenv/mddebug/internal/assembler"
	"github.com/retroenv/mddebug/internal/assembler/asm68k"
	"github.com/retroenv/mddebug/internal/config"
	"github.com/retroenv/mddebug/internal/debuginfo"
	"github.com/retroenv/mddebug/internal/detector"
	"github.com/retroenv/mddebug/internal/listing"
	"github.com/retroenv/mddebug/internal/options"
	"github.com/retroenv/mddebug/internal/symbols"
	"github.com/retroenv/mddebug/internal/verification"
	"github.com/retroenv/retrogolib/log"
)

// Names of the mappings in the result set, in priority order.
const (
	SymbolsMapping = "symbols"
	ListingMapping = "listing"
)

var (
	_ debuginfo.Mapping = &symbols.Table{}
	_ debuginfo.Mapping = &listing.Source{}
)

// ErrNoDebugInfo is returned when neither the symbol file nor the listing
// could be loaded.
var ErrNoDebugInfo = errors.New("no debug information available")

// AssembleFunc runs the assembler.
type AssembleFunc func(ctx context.Context, conf asm68k.Config) error

// Result is the debug information of one source file.
type Result struct {
	Paths   config.Paths
	Format  symbols.Format
	Symbols *symbols.Table  // nil if the symbol file could not be loaded
	Listing *listing.Source // nil if the listing could not be mapped
	Mapping *debuginfo.Set
}

// Pipeline orchestrates the complete debug information workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	assemble AssembleFunc
}

// New creates a new debug information pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		assemble: asm68k.AssembleUsingExternalApp,
	}
}

// Execute runs the complete pipeline. Failing to load one of the symbol file
// and the listing is logged, the result then contains only the other mapping.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program) (*Result, error) {
	paths := config.ResolvePaths(opts)

	format, err := p.detector.Detect(opts)
	if err != nil {
		return nil, fmt.Errorf("detecting symbol format: %w", err)
	}

	if opts.Assemble {
		if err := p.runAssembler(ctx, opts, paths); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Paths:   paths,
		Format:  format,
		Mapping: debuginfo.NewSet(),
	}

	table := symbols.New(p.logger, format)
	if err := table.Read(paths.Symbols); err != nil {
		p.logger.Warn("Continuing without symbol file", log.String("file", paths.Symbols))
	} else {
		result.Symbols = table
		result.Mapping.Add(SymbolsMapping, table)
	}

	source := listing.New(p.logger)
	if err := source.Init(paths.Source, paths.Listing, paths.BasePath); err != nil {
		p.logger.Warn("Continuing without listing", log.String("file", paths.Listing))
	} else {
		result.Listing = source
		result.Mapping.Add(ListingMapping, source)
	}

	if result.Mapping.Len() == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoDebugInfo, paths.Source)
	}

	if opts.Verify {
		if err := p.verify(result); err != nil {
			return nil, fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}

	return result, nil
}

func (p *Pipeline) runAssembler(ctx context.Context, opts options.Program, paths config.Paths) error {
	conf := asm68k.Config{
		Executable: opts.Assembler,
		Options:    opts.AssemblerArgs,
		Source:     paths.Source,
		Outputs: assembler.Outputs{
			Binary:  paths.Binary,
			Symbols: paths.Symbols,
			Listing: paths.Listing,
		},
	}

	p.logger.Info("Assembling",
		log.String("source", paths.Source),
		log.String("assembler", opts.Assembler))

	if err := p.assemble(ctx, conf); err != nil {
		return fmt.Errorf("running assembler: %w", err)
	}
	return nil
}

func (p *Pipeline) verify(result *Result) error {
	if result.Symbols == nil || result.Listing == nil {
		return errors.New("verification needs both the symbol file and the listing")
	}
	if _, err := verification.VerifyOutput(p.logger, result.Symbols, result.Listing); err != nil {
		return err
	}
	return nil
}
