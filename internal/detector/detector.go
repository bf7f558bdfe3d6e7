// Package detector handles symbol file format detection.
package detector

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/retroenv/mddebug/internal/options"
	"github.com/retroenv/mddebug/internal/symbols"
	"github.com/retroenv/retrogolib/log"
)

// Detector handles symbol format detection from options and assembler versions.
type Detector struct {
	logger *log.Logger
}

// New creates a new format detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the symbol file format. An explicitly given format wins.
// Otherwise the assembler version selects the full format if it matches the
// given legacy version range. No assembler version range is built in, without
// one the standard format is used.
func (d *Detector) Detect(opts options.Program) (symbols.Format, error) {
	if opts.Format != "" {
		format, err := symbols.ParseFormat(opts.Format)
		if err != nil {
			return symbols.FormatStandard, fmt.Errorf("parsing format option: %w", err)
		}
		return format, nil
	}

	if opts.AssemblerVersion == "" {
		return symbols.FormatStandard, nil
	}
	if opts.LegacyVersions == "" {
		d.logger.Warn("No legacy version range given, using standard symbol format",
			log.String("assembler_version", opts.AssemblerVersion))
		return symbols.FormatStandard, nil
	}

	format, err := detectFromVersion(opts.AssemblerVersion, opts.LegacyVersions)
	if err != nil {
		return symbols.FormatStandard, err
	}
	d.logger.Debug("Detected symbol format",
		log.String("format", format.String()),
		log.String("assembler_version", opts.AssemblerVersion),
		log.String("legacy_versions", opts.LegacyVersions))
	return format, nil
}

func detectFromVersion(version, legacyVersions string) (symbols.Format, error) {
	legacy, err := semver.NewConstraint(legacyVersions)
	if err != nil {
		return symbols.FormatStandard, fmt.Errorf("parsing legacy version range '%s': %w", legacyVersions, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return symbols.FormatStandard, fmt.Errorf("parsing assembler version '%s': %w", version, err)
	}
	if legacy.Check(v) {
		return symbols.FormatFull, nil
	}
	return symbols.FormatStandard, nil
}
