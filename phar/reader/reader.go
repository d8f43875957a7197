// Package reader decodes PHAR archives from seekable streams.
package reader

import (
	"io"
	"os"

	"github.com/indrora/phar/phar/format"
	"github.com/indrora/phar/phar/ioutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Reader parses PHAR archives. A Reader only holds configuration and may be
// shared; every Open call works on its own cursor.
type Reader struct {
	limits          Limits
	inflater        ioutil.Inflater
	verifyCRC       bool
	verifySignature bool
	log             logrus.FieldLogger
}

func NewReader(opts ...Option) *Reader {
	r := &Reader{
		limits:   DefaultLimits(),
		inflater: ioutil.FlateInflater{},
		log:      discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenFile parses the archive stored at path.
func (r *Reader) OpenFile(path string) (*format.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open archive")
	}
	defer f.Close()

	return r.Open(f, path)
}

// Open parses a whole archive from source, starting at offset 0 whatever
// the current position. Either a complete archive is returned or an error
// wrapping one of the format.Err* kinds; there is no partial result.
func (r *Reader) Open(source io.ReadSeeker, sourceName string) (*format.Archive, error) {
	log := r.log.WithField("source", sourceName)

	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind archive")
	}
	if err := sniffContainer(source); err != nil {
		return nil, err
	}
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind archive")
	}

	cursor := ioutil.NewCursor(source)

	stub, err := ScanStub(cursor, r.limits.MaxStubLength)
	if err != nil {
		return nil, err
	}
	log.WithField("length", len(stub)).Debug("found end of stub")

	manifest, err := r.decodeManifest(cursor, log)
	if err != nil {
		return nil, err
	}

	signature, err := r.readSignature(cursor, manifest, log)
	if err != nil {
		return nil, err
	}

	return &format.Archive{
		Stub:       stub,
		Manifest:   manifest,
		SourceName: sourceName,
		Signature:  signature,
	}, nil
}

// sniffContainer reads the first four bytes, and nothing more, to reject
// archives wrapped in another container.
func sniffContainer(source io.Reader) error {
	head := make([]byte, 4)
	n, err := io.ReadFull(source, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return errors.Wrap(err, "failed to read archive header")
	}
	head = head[:n]

	switch {
	case ioutil.HasPrefix(head, format.MAGIC_ZIP):
		return errors.Wrap(format.ErrUnsupportedContainer, "zip")
	case ioutil.HasPrefix(head, format.MAGIC_GZIP):
		return errors.Wrap(format.ErrUnsupportedContainer, "gzip")
	case ioutil.HasPrefix(head, format.MAGIC_BZIP2):
		return errors.Wrap(format.ErrUnsupportedContainer, "bzip2")
	}
	return nil
}

// readError turns a short read into ErrTruncated and labels the field.
func readError(err error, field string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrapf(format.ErrTruncated, "reading %s", field)
	}
	return errors.Wrapf(err, "reading %s", field)
}
