// Package verification cross checks the symbol file against the listing
// mapping of the assembled source file.
package verification

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/mddebug/internal/debuginfo"
	"github.com/retroenv/retrogolib/log"
)

// maxReported limits the number of mismatches that are logged individually.
const maxReported = 10

// Source is the listing side of the check.
type Source interface {
	Filename() string
	LineCount() int
	LineAddress(line int) uint32
}

// Report is the outcome of a verification run.
type Report struct {
	Checked    int // source lines with code
	Missing    int // addresses unknown to the symbol file
	Mismatches int // addresses the symbol file attributes to another file
}

// VerifyOutput checks that every code address of the listing is attributed
// to the same source file by the symbol file. Addresses missing from the
// symbol file are reported but do not fail the verification.
func VerifyOutput(logger *log.Logger, table debuginfo.Mapping, source Source) (Report, error) {
	var report Report

	for line := 0; line < source.LineCount(); line++ {
		address := source.LineAddress(line)
		if address == 0 {
			continue
		}
		report.Checked++

		file, symbolLine := table.FileLine(address)
		if file == "" {
			report.Missing++
			logger.Debug("Address missing in symbol file",
				log.Hex("address", address),
				log.Int("line", line))
			continue
		}
		if sameFile(file, source.Filename()) {
			continue
		}

		report.Mismatches++
		if report.Mismatches <= maxReported {
			logger.Error("File mismatch",
				log.Hex("address", address),
				log.String("listing", fmt.Sprintf("%s:%d", source.Filename(), line)),
				log.String("symbols", fmt.Sprintf("%s:%d", file, symbolLine)))
		}
	}

	logger.Info("Verification finished",
		log.Int("checked", report.Checked),
		log.Int("missing", report.Missing),
		log.Int("mismatches", report.Mismatches))

	if report.Mismatches > 0 {
		return report, fmt.Errorf("%d of %d addresses are attributed to other files", report.Mismatches, report.Checked)
	}
	return report, nil
}

func sameFile(a, b string) bool {
	return strings.EqualFold(filepath.Base(filepath.Clean(a)), filepath.Base(filepath.Clean(b)))
}
