package ioutil

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
)

// Cursor is a buffered, position-tracking view over a seekable stream. It is
// owned by a single parse and is not safe for concurrent use.
type Cursor struct {
	source io.ReadSeeker
	reader *bufio.Reader
	offset int64
}

func NewCursor(source io.ReadSeeker) *Cursor {
	return &Cursor{
		source: source,
		reader: bufio.NewReader(source),
	}
}

// Offset returns the position of the next byte to be read.
func (c *Cursor) Offset() int64 {
	return c.offset
}

func (c *Cursor) Read(b []byte) (int, error) {
	n, err := c.reader.Read(b)
	c.offset += int64(n)
	return n, err
}

func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.reader.ReadByte()
	if err == nil {
		c.offset++
	}
	return b, err
}

// Peek returns up to n upcoming bytes without consuming them. A short result
// comes with the error that cut it short.
func (c *Cursor) Peek(n int) ([]byte, error) {
	return c.reader.Peek(n)
}

func (c *Cursor) Discard(n int) error {
	discarded, err := c.reader.Discard(n)
	c.offset += int64(discarded)
	return err
}

// ReadN reads exactly n bytes. The buffer grows with the data actually
// present, so a bogus length fails with io.ErrUnexpectedEOF instead of a
// huge allocation.
func (c *Cursor) ReadN(n uint32) ([]byte, error) {
	buffer := new(bytes.Buffer)
	got, err := io.CopyN(buffer, c.reader, int64(n))
	c.offset += got
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	} else if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (c *Cursor) ReadUint32() (uint32, error) {
	var v uint32
	if err := binary.Read(c, binary.LittleEndian, &v); err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return v, nil
}

// Seek repositions the underlying stream and drops any buffered bytes.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset += c.offset
		whence = io.SeekStart
	}
	pos, err := c.source.Seek(offset, whence)
	if err != nil {
		return c.offset, err
	}
	c.reader.Reset(c.source)
	c.offset = pos
	return pos, nil
}
