package symbols

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// cursor reads fixed width fields sequentially from a symbol file buffer.
// Every read is bounds checked, a short buffer results in ErrMalformedSymbolFile.
type cursor struct {
	data   []byte
	offset int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.offset
}

func (c *cursor) take(n int, what string) ([]byte, error) {
	if c.remaining() < n {
		return nil, fmt.Errorf("%w: %s needs %d bytes at offset %d, %d left",
			ErrMalformedSymbolFile, what, n, c.offset, c.remaining())
	}
	b := c.data[c.offset : c.offset+n]
	c.offset += n
	return b, nil
}

func (c *cursor) uint8(what string) (uint8, error) {
	b, err := c.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// uint16BE reads the filename length field, the only big-endian field of the format.
func (c *cursor) uint16BE(what string) (uint16, error) {
	b, err := c.take(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) uint32LE(what string) (uint32, error) {
	b, err := c.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// string reads n bytes of ANSI text as emitted by the Windows assembler.
func (c *cursor) string(n int, what string) (string, error) {
	b, err := c.take(n, what)
	if err != nil {
		return "", err
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", what, err)
	}
	return string(s), nil
}
