package format

import (
	"github.com/pkg/errors"
)

// Every decode failure wraps exactly one of these. Use errors.Is to tell
// them apart.
var (
	// The input is a ZIP, GZIP or BZIP2 container rather than a bare PHAR.
	ErrUnsupportedContainer = errors.New("unsupported container wrapper")
	// The stub sentinel is missing or its trailing bytes are inconsistent.
	ErrMalformedStub = errors.New("malformed stub")
	ErrMalformedManifest = errors.New("malformed manifest")
	ErrMalformedEntry    = errors.New("malformed entry")
	// An entry uses a compression method this reader cannot decode.
	ErrUnsupportedCompression = errors.New("unsupported compression method")
	// The stream ended before a field was fully read.
	ErrTruncated = errors.New("truncated archive")

	ErrChecksumMismatch = errors.New("entry checksum mismatch")
	ErrBadSignature     = errors.New("archive signature mismatch")
)
