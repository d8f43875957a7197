package reader

import (
	"github.com/indrora/phar/phar/format"
	"github.com/indrora/phar/phar/ioutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Upper bound on up-front allocation for the entry table; the declared count
// is untrusted until the headers have actually been read.
const maxPreallocEntries = 4096

// decodeManifest reads the global header, then every entry header, then
// every payload. Headers are stored back to back before the first payload,
// so payloads can only be located once all headers are known.
func (r *Reader) decodeManifest(c *ioutil.Cursor, log logrus.FieldLogger) (*format.Manifest, error) {
	length, err := c.ReadUint32()
	if err != nil {
		return nil, readError(err, "manifest length")
	}
	if length < format.MANIFEST_MIN_LENGTH {
		return nil, errors.Wrapf(format.ErrMalformedManifest, "manifest length %d is below the minimum of %d", length, format.MANIFEST_MIN_LENGTH)
	}

	count, err := c.ReadUint32()
	if err != nil {
		return nil, readError(err, "entry count")
	}
	if r.limits.MaxEntryCount > 0 && count > r.limits.MaxEntryCount {
		return nil, errors.Wrapf(format.ErrMalformedManifest, "entry count %d exceeds limit %d", count, r.limits.MaxEntryCount)
	}

	packed, err := c.ReadN(2)
	if err != nil {
		return nil, readError(err, "manifest version")
	}

	flags, err := c.ReadUint32()
	if err != nil {
		return nil, readError(err, "manifest flags")
	}

	alias, err := r.readAlias(c)
	if err != nil {
		return nil, err
	}

	metadata, err := r.readMetadata(c, "manifest metadata", format.ErrMalformedManifest)
	if err != nil {
		return nil, err
	}

	hint := count
	if hint > maxPreallocEntries {
		hint = maxPreallocEntries
	}

	manifest := format.NewManifest(hint)
	manifest.Version = format.ParseVersion([2]byte{packed[0], packed[1]})
	manifest.Flags = format.ManifestFlags(flags)
	manifest.Alias = alias
	manifest.Metadata = metadata

	log.WithFields(logrus.Fields{
		"length":  length,
		"entries": count,
		"version": manifest.Version.String(),
		"flags":   flags,
	}).Debug("decoded manifest header")

	dirs := manifest.SupportsDirectories()
	headers := make([]*format.Entry, 0, hint)
	for i := uint32(0); i < count; i++ {
		entry, err := r.decodeEntryHeader(c, dirs)
		if err != nil {
			return nil, errors.Wrapf(err, "entry header %d", i)
		}
		headers = append(headers, entry)
	}

	for _, entry := range headers {
		if err := r.decodeEntryContent(c, entry); err != nil {
			return nil, err
		}
		if !manifest.Insert(entry) {
			return nil, errors.Wrapf(format.ErrMalformedManifest, "duplicate entry %q", entry.Name)
		}
		log.WithFields(logrus.Fields{
			"name":        entry.Name,
			"dir":         entry.IsDir(),
			"compression": entry.Compression().String(),
			"size":        entry.UncompressedSize,
		}).Debug("decoded entry")
	}

	return manifest, nil
}

func (r *Reader) readAlias(c *ioutil.Cursor) (*string, error) {
	length, err := c.ReadUint32()
	if err != nil {
		return nil, readError(err, "alias length")
	}
	if length == 0 {
		return nil, nil
	}
	if r.limits.MaxAliasLength > 0 && length > r.limits.MaxAliasLength {
		return nil, errors.Wrapf(format.ErrMalformedManifest, "alias length %d exceeds limit %d", length, r.limits.MaxAliasLength)
	}

	raw, err := c.ReadN(length)
	if err != nil {
		return nil, readError(err, "alias")
	}
	alias := string(raw)
	return &alias, nil
}

// readMetadata reads a length-prefixed opaque metadata blob. An oversized
// length is reported as kind.
func (r *Reader) readMetadata(c *ioutil.Cursor, field string, kind error) ([]byte, error) {
	length, err := c.ReadUint32()
	if err != nil {
		return nil, readError(err, field+" length")
	}
	if r.limits.MaxMetadataLength > 0 && length > r.limits.MaxMetadataLength {
		return nil, errors.Wrapf(kind, "%s length %d exceeds limit %d", field, length, r.limits.MaxMetadataLength)
	}

	metadata, err := c.ReadN(length)
	if err != nil {
		return nil, readError(err, field)
	}
	return metadata, nil
}
