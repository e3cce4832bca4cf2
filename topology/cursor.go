// Copyright 2024 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package topology

import (
	"encoding/binary"
	"iter"
)

var le = binary.LittleEndian

// Record is a view onto the bytes of a single extended topology record, as
// delimited by its declared size. Reads outside the record return zero and
// writes outside the record are ignored (and reported as such), so that a
// short or otherwise damaged record can never cause accesses beyond the
// record's bytes.
type Record []byte

// Relationship returns the relationship tag of this record.
func (r Record) Relationship() Relationship {
	return Relationship(r.Uint32(exRelationshipOff))
}

// Size returns the size in bytes as declared by this record itself.
func (r Record) Size() uint32 {
	return r.Uint32(exSizeOff)
}

func (r Record) fits(off, n int) bool {
	return off >= 0 && off+n <= len(r)
}

// Uint8 returns the byte at the specified offset, or zero if outside.
func (r Record) Uint8(off int) uint8 {
	if !r.fits(off, 1) {
		return 0
	}
	return r[off]
}

// Uint16 returns the uint16 at the specified offset, or zero if outside.
func (r Record) Uint16(off int) uint16 {
	if !r.fits(off, 2) {
		return 0
	}
	return le.Uint16(r[off:])
}

// Uint32 returns the uint32 at the specified offset, or zero if outside.
func (r Record) Uint32(off int) uint32 {
	if !r.fits(off, 4) {
		return 0
	}
	return le.Uint32(r[off:])
}

// Uint64 returns the uint64 at the specified offset, or zero if outside.
func (r Record) Uint64(off int) uint64 {
	if !r.fits(off, 8) {
		return 0
	}
	return le.Uint64(r[off:])
}

// PutUint8 writes v at the specified offset, reporting whether it fitted.
func (r Record) PutUint8(off int, v uint8) bool {
	if !r.fits(off, 1) {
		return false
	}
	r[off] = v
	return true
}

// PutUint16 writes v at the specified offset, reporting whether it fitted.
func (r Record) PutUint16(off int, v uint16) bool {
	if !r.fits(off, 2) {
		return false
	}
	le.PutUint16(r[off:], v)
	return true
}

// PutUint32 writes v at the specified offset, reporting whether it fitted.
func (r Record) PutUint32(off int, v uint32) bool {
	if !r.fits(off, 4) {
		return false
	}
	le.PutUint32(r[off:], v)
	return true
}

// PutUint64 writes v at the specified offset, reporting whether it fitted.
func (r Record) PutUint64(off int, v uint64) bool {
	if !r.fits(off, 8) {
		return false
	}
	le.PutUint64(r[off:], v)
	return true
}

// Cursor walks a chain of extended topology records inside a byte buffer,
// advancing from record to record by each record's declared size.
//
// The cursor stops (Valid returns false) as soon as there isn't room for a
// complete record header, or the current record declares a size smaller than
// its header or reaching beyond the end of the buffer.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a Cursor positioned on the first record in buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the byte offset of the current record.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of bytes from the current record to the end
// of the buffer.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Valid reports whether the cursor is positioned on a complete record.
func (c *Cursor) Valid() bool {
	if c.Remaining() < ExHeaderSize {
		return false
	}
	size := uint64(le.Uint32(c.buf[c.off+exSizeOff:]))
	return size >= ExHeaderSize && size <= uint64(c.Remaining())
}

// Record returns the current record, or nil if the cursor isn't Valid. The
// returned Record shares its bytes with the cursor's buffer.
func (c *Cursor) Record() Record {
	if !c.Valid() {
		return nil
	}
	size := int(le.Uint32(c.buf[c.off+exSizeOff:]))
	return Record(c.buf[c.off : c.off+size : c.off+size])
}

// Next advances the cursor by the declared size of the current record and
// reports whether it now is positioned on another complete record.
func (c *Cursor) Next() bool {
	if !c.Valid() {
		return false
	}
	c.off += int(le.Uint32(c.buf[c.off+exSizeOff:]))
	return c.Valid()
}

// Records returns an iterator over the complete records in buf, stopping at
// the first damaged record or incomplete trailer.
func Records(buf []byte) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		c := NewCursor(buf)
		for c.Valid() {
			if !yield(c.Record()) {
				return
			}
			c.Next()
		}
	}
}
