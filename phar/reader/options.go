package reader

import (
	"io"

	"github.com/indrora/phar/phar/ioutil"
	"github.com/sirupsen/logrus"
)

// Limits bounds the lengths read from an untrusted archive. A zero field
// disables that check.
type Limits struct {
	MaxStubLength     int64
	MaxEntryCount     uint32
	MaxAliasLength    uint32
	MaxFileNameLength uint32
	MaxMetadataLength uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxStubLength:     1048576 * 100,
		MaxEntryCount:     1 << 20,
		MaxAliasLength:    1000,
		MaxFileNameLength: 1000,
		MaxMetadataLength: 1048576,
	}
}

// Option configures a Reader.
type Option func(*Reader)

// WithLimits replaces the default length limits.
func WithLimits(limits Limits) Option {
	return func(r *Reader) {
		r.limits = limits
	}
}

// WithInflater replaces the DEFLATE implementation used for gz entries.
func WithInflater(inflater ioutil.Inflater) Option {
	return func(r *Reader) {
		if inflater != nil {
			r.inflater = inflater
		}
	}
}

// WithVerifyCRC checks every decoded entry against its stored CRC32
// (default: false).
func WithVerifyCRC(enabled bool) Option {
	return func(r *Reader) {
		r.verifyCRC = enabled
	}
}

// WithVerifySignature recomputes the trailer digest of signed archives
// (default: false). OpenSSL signatures are never verified.
func WithVerifySignature(enabled bool) Option {
	return func(r *Reader) {
		r.verifySignature = enabled
	}
}

// WithLogger sets the logger used for debug tracing of the decode stages.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.log = logger
		}
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
