package reader

import (
	"encoding/binary"
	"hash/crc32"
	"strings"

	"github.com/indrora/phar/phar/format"
	"github.com/indrora/phar/phar/ioutil"
	"github.com/pkg/errors"
)

// Fixed part of an entry header, following the name.
type entryBinary struct {
	UncompressedSize uint32
	Timestamp        uint32
	CompressedSize   uint32
	CRC              uint32
	Flags            uint32
}

// decodeEntryHeader reads one entry header. Content is left empty; it is
// filled by decodeEntryContent once every header has been read.
func (r *Reader) decodeEntryHeader(c *ioutil.Cursor, supportsDirectories bool) (*format.Entry, error) {
	nameLength, err := c.ReadUint32()
	if err != nil {
		return nil, readError(err, "entry name length")
	}
	if nameLength == 0 {
		return nil, errors.Wrap(format.ErrMalformedEntry, "empty entry name")
	}
	if r.limits.MaxFileNameLength > 0 && nameLength > r.limits.MaxFileNameLength {
		return nil, errors.Wrapf(format.ErrMalformedEntry, "entry name length %d exceeds limit %d", nameLength, r.limits.MaxFileNameLength)
	}

	rawName, err := c.ReadN(nameLength)
	if err != nil {
		return nil, readError(err, "entry name")
	}
	name := string(rawName)

	var eb entryBinary
	if err = binary.Read(c, binary.LittleEndian, &eb); err != nil {
		return nil, readError(err, "header of "+name)
	}

	flags := format.EntryFlags(eb.Flags) &^ format.ENTRY_KIND_MASK
	if supportsDirectories && strings.HasSuffix(name, "/") {
		flags |= format.ENTRY_KIND_DIR
		name = name[:len(name)-1]
	} else {
		flags |= format.ENTRY_KIND_FILE
	}

	metadata, err := r.readMetadata(c, "metadata of "+name, format.ErrMalformedEntry)
	if err != nil {
		return nil, err
	}

	entry := &format.Entry{
		Name:             name,
		UncompressedSize: eb.UncompressedSize,
		Timestamp:        eb.Timestamp,
		CompressedSize:   eb.CompressedSize,
		CRC:              eb.CRC,
		Flags:            flags,
		Metadata:         metadata,
	}

	if entry.Compression() == format.COMPRESSION_NONE && entry.UncompressedSize != entry.CompressedSize {
		return nil, errors.Wrapf(format.ErrMalformedEntry, "%q is uncompressed but its sizes differ (%d != %d)",
			name, entry.UncompressedSize, entry.CompressedSize)
	}

	return entry, nil
}

// decodeEntryContent consumes exactly CompressedSize bytes and stores the
// decoded content on the entry.
func (r *Reader) decodeEntryContent(c *ioutil.Cursor, entry *format.Entry) error {
	raw, err := c.ReadN(entry.CompressedSize)
	if err != nil {
		return readError(err, "content of "+entry.Name)
	}

	content, err := r.decompress(raw, entry)
	if err != nil {
		return err
	}

	if r.verifyCRC {
		if sum := crc32.ChecksumIEEE(content); sum != entry.CRC {
			return errors.Wrapf(format.ErrChecksumMismatch, "%q: stored %08x, computed %08x", entry.Name, entry.CRC, sum)
		}
	}

	entry.Content = content
	return nil
}
