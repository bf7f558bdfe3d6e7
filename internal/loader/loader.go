// Package loader handles reading assembler output files from disk.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// maxLineLength bounds a single listing or source line.
const maxLineLength = 1024 * 1024

// ReadFile opens the file, reads its complete content and closes it again on
// every path, including read errors.
func ReadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

// LoadLines reads a text file as lines, see SplitLines.
func LoadLines(path string) ([]string, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := SplitLines(data)
	if err != nil {
		return nil, fmt.Errorf("splitting lines of %s: %w", path, err)
	}
	return lines, nil
}

// SplitLines splits text into lines, accepting LF and CR LF line endings.
// A final line break does not start a new line, but if the last byte is a
// line feed one empty line is appended. This keeps the line count in step
// with the numbering the assembler uses in its listing output.
func SplitLines(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if data[len(data)-1] == '\n' {
		lines = append(lines, "")
	}
	return lines, nil
}
