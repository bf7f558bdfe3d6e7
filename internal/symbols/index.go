package symbols

import (
	"runtime"

	"github.com/retroenv/retrogolib/set"
	"golang.org/x/sync/errgroup"
)

// index maps addresses to the source position that first claimed them.
type index struct {
	items map[uint32]FileLine

	// ambiguous holds addresses that more than one file claimed.
	ambiguous set.Set[uint32]
}

func newIndex() *index {
	return &index{
		items:     make(map[uint32]FileLine),
		ambiguous: set.New[uint32](),
	}
}

// Get returns the position for the given address.
func (x *index) Get(address uint32) (FileLine, bool) {
	item, ok := x.items[address]
	return item, ok
}

// SetFirst stores the position unless the address is already mapped.
func (x *index) SetFirst(address uint32, item FileLine) {
	existing, ok := x.items[address]
	if !ok {
		x.items[address] = item
		return
	}
	if existing.Filename != item.Filename {
		x.ambiguous.Add(address)
	}
}

// Len returns the number of mapped addresses.
func (x *index) Len() int {
	return len(x.items)
}

// IsAmbiguous returns whether several files claimed the address.
func (x *index) IsAmbiguous(address uint32) bool {
	return x.ambiguous.Contains(address)
}

// buildIndex creates the address to file line index. The per section maps are
// built concurrently and merged in section order, which gives the same first
// writer wins result as a single sequential pass.
func buildIndex(sections []*FilenameSection) (*index, error) {
	partial := make([]map[uint32]int, len(sections))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, section := range sections {
		i, section := i, section
		g.Go(func() error {
			partial[i] = sectionLines(section)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := newIndex()
	for i, section := range sections {
		for address, line := range partial[i] {
			idx.SetFirst(address, FileLine{
				Filename: section.Filename,
				Line:     line,
			})
		}
	}
	return idx, nil
}

func sectionLines(section *FilenameSection) map[uint32]int {
	lines := make(map[uint32]int, len(section.Addresses))
	for _, entry := range section.Addresses {
		if _, ok := lines[entry.Address]; ok {
			continue
		}
		lines[entry.Address] = int(entry.LineTo)
	}
	return lines
}
