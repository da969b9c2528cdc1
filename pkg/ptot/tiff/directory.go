package tiff

import (
	"fmt"

	perrors "github.com/provide-io/ptot/pkg/ptot/errors"
)

// Entry is one 12-byte directory entry. Value holds the value itself when
// it fits in 4 bytes, otherwise the file offset of the value, already in
// the output byte order.
type Entry struct {
	Tag   uint16
	Type  DataType
	Count uint32
	Value [4]byte
}

// Directory keeps entries sorted by tag as they are added.
type Directory struct {
	entries []Entry
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{entries: make([]Entry, 0, MaxTags)}
}

// Add inserts e in tag order. An entry with the same tag is replaced.
func (d *Directory) Add(e Entry) error {
	pos := 0
	for pos < len(d.entries) && d.entries[pos].Tag < e.Tag {
		pos++
	}
	if pos < len(d.entries) && d.entries[pos].Tag == e.Tag {
		d.entries[pos] = e
		return nil
	}
	if len(d.entries) >= MaxTags {
		return fmt.Errorf("%w: directory holds %d tags, cannot add %d", perrors.ErrCapacity, MaxTags, e.Tag)
	}

	d.entries = append(d.entries, Entry{})
	copy(d.entries[pos+1:], d.entries[pos:])
	d.entries[pos] = e
	return nil
}

// Lookup returns the entry for tag.
func (d *Directory) Lookup(tag uint16) (Entry, bool) {
	for _, e := range d.entries {
		if e.Tag == tag {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns the entries in ascending tag order.
func (d *Directory) Entries() []Entry {
	return d.entries
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.entries)
}
