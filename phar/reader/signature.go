package reader

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"github.com/indrora/phar/phar/format"
	"github.com/indrora/phar/phar/ioutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// readSignature parses the trailer of signed archives:
//
//	hash || u32 algorithm || "GBMB"
//	signature || u32 signature length || u32 algorithm || "GBMB"   (OpenSSL)
//
// It is located from the end of the stream, after every payload was read.
func (r *Reader) readSignature(c *ioutil.Cursor, manifest *format.Manifest, log logrus.FieldLogger) (*format.Signature, error) {
	if !manifest.IsSigned() {
		return nil, nil
	}

	payloadEnd := c.Offset()
	size, err := c.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to seek to signature")
	}
	if size-payloadEnd < 8 {
		return nil, errors.Wrap(format.ErrTruncated, "signature trailer")
	}

	if _, err = c.Seek(size-8, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to seek to signature")
	}
	rawAlgorithm, err := c.ReadUint32()
	if err != nil {
		return nil, readError(err, "signature algorithm")
	}
	magic, err := c.ReadN(4)
	if err != nil {
		return nil, readError(err, "signature magic")
	}
	if !bytes.Equal(magic, format.SIGNATURE_MAGIC_BYTES) {
		return nil, errors.Wrapf(format.ErrBadSignature, "trailer ends with %q, not %s", magic, format.SIGNATURE_MAGIC_STRING)
	}

	algorithm := format.SignatureAlgorithm(rawAlgorithm)
	hashEnd := size - 8
	var hashLength int64

	switch {
	case algorithm.DigestSize() > 0:
		hashLength = int64(algorithm.DigestSize())
	case algorithm.IsOpenSSL():
		if hashEnd-payloadEnd < 4 {
			return nil, errors.Wrap(format.ErrTruncated, "signature length")
		}
		hashEnd -= 4
		if _, err = c.Seek(hashEnd, io.SeekStart); err != nil {
			return nil, errors.Wrap(err, "failed to seek to signature length")
		}
		length, err := c.ReadUint32()
		if err != nil {
			return nil, readError(err, "signature length")
		}
		hashLength = int64(length)
	default:
		return nil, errors.Wrapf(format.ErrBadSignature, "unknown signature algorithm %s", algorithm)
	}

	start := hashEnd - hashLength
	if start < payloadEnd {
		return nil, errors.Wrapf(format.ErrBadSignature, "%s signature overlaps entry data", algorithm)
	}
	if start > payloadEnd {
		log.WithField("gap", start-payloadEnd).Debug("unused bytes before signature")
	}

	if _, err = c.Seek(start, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to seek to signature")
	}
	digest, err := c.ReadN(uint32(hashLength))
	if err != nil {
		return nil, readError(err, "signature")
	}

	signature := &format.Signature{
		Algorithm: algorithm,
		Hash:      digest,
		Offset:    start,
	}

	if r.verifySignature {
		if err = verifyDigest(c, signature); err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"algorithm": algorithm.String(),
		"verified":  signature.Verified,
	}).Debug("read signature")

	return signature, nil
}

func newSignatureHash(algorithm format.SignatureAlgorithm) hash.Hash {
	switch algorithm {
	case format.SIGNATURE_MD5:
		return md5.New()
	case format.SIGNATURE_SHA1:
		return sha1.New()
	case format.SIGNATURE_SHA256:
		return sha256.New()
	case format.SIGNATURE_SHA512:
		return sha512.New()
	}
	return nil
}

// verifyDigest hashes everything before the trailer and compares it to the
// stored digest. OpenSSL signatures need a public key and are left
// unverified.
func verifyDigest(c *ioutil.Cursor, signature *format.Signature) error {
	hasher := newSignatureHash(signature.Algorithm)
	if hasher == nil {
		return nil
	}

	if _, err := c.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "failed to rewind for signature check")
	}
	if _, err := io.CopyN(hasher, c, signature.Offset); err != nil {
		return readError(err, "signed data")
	}

	if !bytes.Equal(hasher.Sum(nil), signature.Hash) {
		return errors.Wrapf(format.ErrBadSignature, "%s digest does not match", signature.Algorithm)
	}
	signature.Verified = true
	return nil
}
