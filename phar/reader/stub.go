package reader

import (
	"io"

	"github.com/indrora/phar/phar/format"
	"github.com/indrora/phar/phar/ioutil"
	"github.com/pkg/errors"
)

// ScanStub consumes the stub from the start of c, up to and including the
// __HALT_COMPILER(); sentinel and an optional closing tag, and returns those
// bytes verbatim. On success c points at the first byte of the manifest.
// maxLength bounds the search; 0 means no bound.
func ScanStub(c *ioutil.Cursor, maxLength int64) ([]byte, error) {
	stub := make([]byte, 0, 512)

	for {
		b, err := c.ReadByte()
		if err == io.EOF {
			return nil, errors.Wrap(format.ErrMalformedStub, "no "+format.HALT_COMPILER_STRING+" before end of stream")
		} else if err != nil {
			return nil, errors.Wrap(err, "failed to read stub")
		}

		stub = append(stub, b)
		if ioutil.HasSuffix(stub, format.HALT_COMPILER_BYTES) {
			break
		}
		if maxLength > 0 && int64(len(stub)) >= maxLength {
			return nil, errors.Wrapf(format.ErrMalformedStub, "no %s within %d bytes", format.HALT_COMPILER_STRING, maxLength)
		}
	}

	peek, err := c.Peek(5)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to read past stub sentinel")
	}

	n, err := closingTagLength(peek)
	if err != nil {
		return nil, err
	}

	stub = append(stub, peek[:n]...)
	if err = c.Discard(n); err != nil {
		return nil, errors.Wrap(err, "failed to consume closing tag")
	}
	return stub, nil
}

// closingTagLength returns how many of the bytes following the sentinel
// belong to the stub: " ?>" or "\n?>", then an optional "\n" or "\r\n".
func closingTagLength(peek []byte) (int, error) {
	if len(peek) < 3 || (peek[0] != ' ' && peek[0] != '\n') || peek[1] != '?' || peek[2] != '>' {
		return 0, nil
	}
	if len(peek) == 3 {
		return 3, nil
	}

	switch peek[3] {
	case '\r':
		if len(peek) < 5 || peek[4] != '\n' {
			return 0, errors.Wrap(format.ErrMalformedStub, "carriage return after closing tag is not followed by a newline")
		}
		return 5, nil
	case '\n':
		return 4, nil
	default:
		return 3, nil
	}
}
