package symbols

import (
	"fmt"
)

// decoded holds everything read from one chunk stream.
type decoded struct {
	assembledFile string
	symbols       []SymbolEntry
	sections      []*FilenameSection
}

type decoder struct {
	format Format
	out    decoded

	current       *FilenameSection
	counter       int32
	inSymbolTable bool
}

// decode parses the complete symbol file content. The parse is aborted on the
// first truncated or unknown chunk.
func decode(format Format, data []byte) (*decoded, error) {
	c := newCursor(data)
	if _, err := c.take(fileHeaderSize, "file header"); err != nil {
		return nil, err
	}

	d := &decoder{format: format}
	for c.remaining() > 0 {
		start := c.offset

		payload, err := c.uint32LE("chunk payload")
		if err != nil {
			return nil, err
		}
		id, err := c.uint8("chunk id")
		if err != nil {
			return nil, err
		}

		if err := d.chunk(c, ChunkID(id), payload); err != nil {
			return nil, fmt.Errorf("%s chunk at offset %d: %w", ChunkID(id), start, err)
		}
	}

	return &d.out, nil
}

func (d *decoder) chunk(c *cursor, id ChunkID, payload uint32) error {
	if d.inSymbolTable && id != ChunkSymbol {
		return fmt.Errorf("%w: only symbols are allowed after the symbol table marker", ErrMalformedSymbolFile)
	}

	switch id {
	case ChunkFilename:
		return d.filename(c, payload)

	case ChunkAddress:
		return d.appendLines(payload, 1)

	case ChunkAddressWithCount:
		count, err := c.uint8("line count")
		if err != nil {
			return err
		}
		return d.appendLines(payload, int32(count))

	case ChunkSymbol:
		return d.symbol(c, payload)

	case ChunkEndOfSection:
		if d.format == FormatFull {
			d.inSymbolTable = true
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown chunk id 0x%02X", ErrMalformedSymbolFile, uint8(id))
	}
}

func (d *decoder) filename(c *cursor, payload uint32) error {
	firstLine, err := c.uint8("first line")
	if err != nil {
		return err
	}
	flags, err := c.uint8("filename flags")
	if err != nil {
		return err
	}
	if _, err := c.take(1, "filename header padding"); err != nil {
		return err
	}
	length, err := c.uint16BE("filename length")
	if err != nil {
		return err
	}
	name, err := c.string(int(length), "filename")
	if err != nil {
		return err
	}

	if flags == assembledFileFlag {
		d.out.assembledFile = name
		return nil
	}

	d.selectSection(name)

	line := int32(firstLine)
	entry := AddressEntry{
		Address:  payload,
		Flags:    flags,
		LineFrom: d.counter,
		LineTo:   line,
	}
	if d.format == FormatFull {
		entry.LineFrom = line
	}
	d.current.Addresses = append(d.current.Addresses, entry)
	d.counter = line
	return nil
}

// selectSection makes the section of the given file current, continuing the
// line counter of an already known section.
func (d *decoder) selectSection(name string) {
	for _, section := range d.out.sections {
		if section.Filename != name {
			continue
		}
		d.current = section
		d.counter = 0
		if n := len(section.Addresses); n > 0 {
			d.counter = section.Addresses[n-1].LineTo
		}
		return
	}

	d.current = &FilenameSection{Filename: name}
	d.out.sections = append(d.out.sections, d.current)
	d.counter = 0
}

func (d *decoder) appendLines(payload uint32, count int32) error {
	if d.current == nil {
		return fmt.Errorf("%w: address chunk before any filename chunk", ErrMalformedSymbolFile)
	}

	d.current.Addresses = append(d.current.Addresses, AddressEntry{
		Address:  payload,
		LineFrom: d.counter,
		LineTo:   d.counter + count,
	})
	d.counter += count
	return nil
}

func (d *decoder) symbol(c *cursor, payload uint32) error {
	length, err := c.uint8("symbol length")
	if err != nil {
		return err
	}
	name, err := c.string(int(length), "symbol name")
	if err != nil {
		return err
	}

	d.out.symbols = append(d.out.symbols, SymbolEntry{
		Address: payload,
		Name:    name,
	})
	return nil
}
