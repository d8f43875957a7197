package ioutil

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

type Inflater interface {
	// Inflate decompresses a whole payload. expected is the size the
	// archive claims for the result; implementations may stop reading
	// shortly past it.
	Inflate(compressed []byte, expected uint32) ([]byte, error)
}

// InflaterFunc adapts a plain function to the Inflater interface.
type InflaterFunc func(compressed []byte, expected uint32) ([]byte, error)

func (f InflaterFunc) Inflate(compressed []byte, expected uint32) ([]byte, error) {
	return f(compressed, expected)
}

// Initial buffer size cap; the expected size comes from an untrusted header.
const maxInflateHint = 1 << 20

// FlateInflater decodes raw DEFLATE streams, which is what PHAR stores for
// its gz compression flag.
type FlateInflater struct{}

func (FlateInflater) Inflate(compressed []byte, expected uint32) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()

	hint := expected
	if hint > maxInflateHint {
		hint = maxInflateHint
	}
	buffer := bytes.NewBuffer(make([]byte, 0, hint))
	// one extra byte so an oversized stream is visible to the caller
	if _, err := io.Copy(buffer, io.LimitReader(fr, int64(expected)+1)); err != nil {
		return nil, errors.Wrap(err, "failed to inflate")
	}
	return buffer.Bytes(), nil
}

// Deflate compresses data as a raw DEFLATE stream at the given level.
func Deflate(data []byte, level int) ([]byte, error) {
	buf := new(bytes.Buffer)
	fw, err := flate.NewWriter(buf, level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create deflate writer")
	}
	if _, err = fw.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to deflate")
	}
	if err = fw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finish deflate stream")
	}
	return buf.Bytes(), nil
}
