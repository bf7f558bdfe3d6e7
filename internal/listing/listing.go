// Package listing maps the lines of an assembler source file to the lines
// and code addresses of the expanded listing the assembler generated for it.
package listing

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/retroenv/mddebug/internal/loader"
	"github.com/retroenv/retrogolib/log"
)

var (
	addressPattern  = regexp.MustCompile(`[0-9a-fA-F]{8}`)
	includePattern  = regexp.MustCompile(`(?i)INCLUDE\s+(\S+\.\S+)`)
	codeLinePattern = regexp.MustCompile(`[0-9a-fA-F]{8}\s+(?:[0-9a-fA-F]{4})+[^0-9a-fA-F]`)
	hexPattern      = regexp.MustCompile(`[0-9a-fA-F]+`)
)

var errLineOutOfRange = errors.New("line out of range")

// Include is a file pulled into the listing by an INCLUDE directive.
type Include struct {
	Name       string
	LineNumber int // listing line of the directive
	Content    []string
}

// Source is the line and address mapping of one source file.
type Source struct {
	logger *log.Logger

	filename string
	address  []uint32

	sourceToList []int
	listToSource []int
	includes     []Include
}

// New returns an empty source mapping.
func New(logger *log.Logger) *Source {
	return &Source{
		logger: logger,
	}
}

// scanState is the position tracking while walking the listing.
type scanState struct {
	lineNumber   int
	sourceLine   int
	lineToSkip   int
	previousLine string
}

// Init builds the mapping from the source file and its listing. Included files
// are resolved relative to basePath. Only failing to load the source or the
// listing is an error, problems with single lines are logged and the line is
// skipped.
func (s *Source) Init(sourcePath, listingPath, basePath string) error {
	s.reset()

	source, err := loader.LoadLines(sourcePath)
	if err != nil {
		s.logger.Error("Loading source file failed", log.String("file", sourcePath), log.Err(err))
		return fmt.Errorf("loading source file: %w", err)
	}
	listing, err := loader.LoadLines(listingPath)
	if err != nil {
		s.logger.Error("Loading listing file failed", log.String("file", listingPath), log.Err(err))
		return fmt.Errorf("loading listing file: %w", err)
	}

	s.filename = sourcePath
	s.build(source, listing, basePath)

	s.logger.Debug("Listing mapped",
		log.String("source", sourcePath),
		log.String("listing", listingPath),
		log.Int("lines", len(source)),
		log.Int("includes", len(s.includes)))
	return nil
}

func (s *Source) reset() {
	s.filename = ""
	s.address = nil
	s.sourceToList = nil
	s.listToSource = nil
	s.includes = nil
}

func (s *Source) build(source, listing []string, basePath string) {
	s.address = make([]uint32, len(source))
	s.sourceToList = make([]int, len(source))
	s.listToSource = make([]int, len(listing))

	// included files are loaded once, repeated includes reuse the content
	loaded := make(map[string][]string)
	state := &scanState{}

	for i, line := range listing {
		if err := s.processLine(state, line, basePath, loaded); err != nil {
			s.logger.Warn("Skipping listing line",
				log.Int("line", i+1),
				log.Err(err))
		}
		state.previousLine = line
	}
}

func (s *Source) processLine(state *scanState, line, basePath string, loaded map[string][]string) error {
	if !addressPattern.MatchString(line) {
		state.lineNumber++
		return nil
	}

	if state.lineToSkip > 0 {
		state.lineToSkip--
		return nil
	}

	if line == state.previousLine {
		state.lineNumber++
		return nil
	}

	if match := includePattern.FindStringSubmatch(line); match != nil {
		return s.processInclude(state, match[1], basePath, loaded)
	}

	var address uint32
	if codeLinePattern.MatchString(line) {
		value, err := strconv.ParseUint(hexPattern.FindString(line), 16, 32)
		if err != nil {
			state.lineNumber++
			return fmt.Errorf("parsing address: %w", err)
		}
		address = uint32(value)
	}

	if err := s.mapLine(state.sourceLine, state.lineNumber); err != nil {
		state.lineNumber++
		return err
	}
	s.address[state.sourceLine] = address
	state.sourceLine++
	state.lineNumber++
	return nil
}

// processInclude maps the directive line and skips the listing lines of the
// included content. Includes are expanded one level deep.
func (s *Source) processInclude(state *scanState, name, basePath string, loaded map[string][]string) error {
	name = strings.Trim(name, `"'`)

	content, ok := loaded[name]
	if ok {
		s.logger.Debug("File included more than once", log.String("file", name))
	} else {
		var err error
		content, err = loader.LoadLines(filepath.Join(basePath, name))
		if err != nil {
			state.lineNumber++
			return fmt.Errorf("loading include: %w", err)
		}
		loaded[name] = content
	}

	s.includes = append(s.includes, Include{
		Name:       name,
		LineNumber: state.lineNumber,
		Content:    content,
	})

	if err := s.mapSourceLine(state.sourceLine, state.lineNumber); err != nil {
		state.lineNumber++
		return err
	}
	state.sourceLine++

	state.lineToSkip = len(content)
	state.lineNumber += state.lineToSkip + 1
	return nil
}

func (s *Source) mapSourceLine(sourceLine, listLine int) error {
	if sourceLine >= len(s.sourceToList) {
		return fmt.Errorf("%w: source line %d of %d", errLineOutOfRange, sourceLine+1, len(s.sourceToList))
	}
	s.sourceToList[sourceLine] = listLine
	return nil
}

func (s *Source) mapLine(sourceLine, listLine int) error {
	if listLine >= len(s.listToSource) {
		return fmt.Errorf("%w: listing line %d of %d", errLineOutOfRange, listLine+1, len(s.listToSource))
	}
	if err := s.mapSourceLine(sourceLine, listLine); err != nil {
		return err
	}
	s.listToSource[listLine] = sourceLine
	return nil
}

// SourceLine returns the first source line that generated code at the
// address, or 0 if no line did.
func (s *Source) SourceLine(address uint32) int {
	for line, lineAddress := range s.address {
		if lineAddress == address {
			return line
		}
	}
	return 0
}

// LineAddress returns the code address of the source line, 0 for lines
// without code.
func (s *Source) LineAddress(line int) uint32 {
	if line < 0 || line >= len(s.address) {
		return 0
	}
	return s.address[line]
}

// ListLine returns the listing line the source line was mapped to.
func (s *Source) ListLine(sourceLine int) int {
	if sourceLine < 0 || sourceLine >= len(s.sourceToList) {
		return 0
	}
	return s.sourceToList[sourceLine]
}

// SourceLineOf returns the source line the listing line was mapped to.
func (s *Source) SourceLineOf(listLine int) int {
	if listLine < 0 || listLine >= len(s.listToSource) {
		return 0
	}
	return s.listToSource[listLine]
}

// Includes returns the files included by the source in listing order.
func (s *Source) Includes() []Include {
	return s.includes
}

// LineCount returns the number of lines of the source file.
func (s *Source) LineCount() int {
	return len(s.address)
}

// Filename returns the path of the mapped source file.
func (s *Source) Filename() string {
	return s.filename
}

// FileLine returns the source file and the 1 based line that generated code
// at the address, or an empty filename and line 0. Address 0 is never mapped
// as it also marks lines without code.
func (s *Source) FileLine(address uint32) (string, int) {
	if address == 0 {
		return "", 0
	}
	line := s.SourceLine(address)
	if line >= len(s.address) || s.address[line] != address {
		return "", 0
	}
	return s.filename, line + 1
}

// Address returns the code address of a 1 based line of the mapped source
// file. Other files are not known to the listing and return 0.
func (s *Source) Address(filename string, line int) uint32 {
	if !s.isSourceFile(filename) {
		return 0
	}
	return s.LineAddress(line - 1)
}

func (s *Source) isSourceFile(filename string) bool {
	if s.filename == "" {
		return false
	}
	if strings.EqualFold(filepath.Clean(filename), filepath.Clean(s.filename)) {
		return true
	}
	return strings.EqualFold(filepath.Base(filename), filepath.Base(s.filename))
}
