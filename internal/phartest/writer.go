// Package phartest serializes PHAR archives for tests. It writes whatever it
// is told to, including inconsistent headers, so decoders can be exercised
// against malformed input.
package phartest

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
	"testing"

	"github.com/indrora/phar/phar/format"
	"github.com/indrora/phar/phar/ioutil"
	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

const DefaultStub = "<?php\n__HALT_COMPILER(); ?>\r\n"

var (
	// Packed API version 1.1.1
	VERSION_1_1_1 = [2]byte{0x11, 0x10}
	// Packed API version 1.1.0, before directory entries existed
	VERSION_1_1_0 = [2]byte{0x11, 0x00}
)

// File describes one entry. The pointer fields override the values the
// writer would otherwise compute.
type File struct {
	Name        string
	Content     []byte
	Compression format.CompressionType
	Perm        uint32
	Timestamp   uint32
	Metadata    []byte

	UncompressedSize *uint32
	CompressedSize   *uint32
	CRC              *uint32
	// Written in place of the (compressed) content when non-nil.
	Payload []byte
}

type ArchiveWriter struct {
	Stub      []byte
	Version   [2]byte
	Flags     uint32
	Alias     string
	Metadata  []byte
	Signature format.SignatureAlgorithm
	// Overrides the computed manifest length when non-nil.
	ManifestLength *uint32
	// Overrides the entry count when non-nil.
	EntryCount *uint32

	files []File
}

func NewWriter() *ArchiveWriter {
	return &ArchiveWriter{
		Stub:    []byte(DefaultStub),
		Version: VERSION_1_1_1,
	}
}

func Uint32(v uint32) *uint32 {
	return &v
}

func (archive *ArchiveWriter) AppendFile(name string, content string) *ArchiveWriter {
	return archive.Append(File{Name: name, Content: []byte(content), Perm: 0644})
}

// AppendDirectory adds a directory entry; the trailing slash is added here.
func (archive *ArchiveWriter) AppendDirectory(name string) *ArchiveWriter {
	return archive.Append(File{Name: name + "/", Perm: 0755})
}

func (archive *ArchiveWriter) Append(f File) *ArchiveWriter {
	archive.files = append(archive.files, f)
	return archive
}

// Bytes serializes the whole archive: stub, manifest, headers, payloads and
// the signature trailer if one was requested.
func (archive *ArchiveWriter) Bytes() ([]byte, error) {
	payloads := make([][]byte, 0, len(archive.files))
	headers := new(bytes.Buffer)

	for _, f := range archive.files {
		payload, err := payloadFor(f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode %q", f.Name)
		}
		payloads = append(payloads, payload)

		if err = writeEntryHeader(headers, f, uint32(len(payload))); err != nil {
			return nil, errors.Wrapf(err, "failed to write header of %q", f.Name)
		}
	}

	flags := archive.Flags
	if archive.Signature != 0 {
		flags |= uint32(format.MANIFEST_FLAG_SIGNATURE)
	}

	count := uint32(len(archive.files))
	if archive.EntryCount != nil {
		count = *archive.EntryCount
	}

	body := new(bytes.Buffer)
	write(body, count)
	body.Write(archive.Version[:])
	write(body, flags)
	write(body, uint32(len(archive.Alias)))
	body.WriteString(archive.Alias)
	write(body, uint32(len(archive.Metadata)))
	body.Write(archive.Metadata)
	body.Write(headers.Bytes())

	length := uint32(body.Len())
	if archive.ManifestLength != nil {
		length = *archive.ManifestLength
	}

	out := new(bytes.Buffer)
	out.Write(archive.Stub)
	write(out, length)
	out.Write(body.Bytes())
	for _, payload := range payloads {
		out.Write(payload)
	}

	if archive.Signature != 0 {
		if err := appendSignature(out, archive.Signature); err != nil {
			return nil, err
		}
	}

	return out.Bytes(), nil
}

// MustBytes is Bytes for use in tests.
func (archive *ArchiveWriter) MustBytes(tb testing.TB) []byte {
	tb.Helper()
	b, err := archive.Bytes()
	if err != nil {
		tb.Fatalf("failed to build archive: %v", err)
	}
	return b
}

func payloadFor(f File) ([]byte, error) {
	if f.Payload != nil {
		return f.Payload, nil
	}
	switch f.Compression {
	case format.COMPRESSION_GZ:
		return ioutil.Deflate(f.Content, flate.DefaultCompression)
	default:
		return f.Content, nil
	}
}

func writeEntryHeader(w io.Writer, f File, stored uint32) error {
	uncompressed := uint32(len(f.Content))
	if f.UncompressedSize != nil {
		uncompressed = *f.UncompressedSize
	}
	compressed := stored
	if f.CompressedSize != nil {
		compressed = *f.CompressedSize
	}
	crc := crc32.ChecksumIEEE(f.Content)
	if f.CRC != nil {
		crc = *f.CRC
	}

	fields := []any{
		uint32(len(f.Name)), []byte(f.Name),
		uncompressed, f.Timestamp, compressed, crc,
		f.Perm | uint32(f.Compression),
		uint32(len(f.Metadata)), f.Metadata,
	}
	for _, field := range fields {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

func appendSignature(out *bytes.Buffer, algorithm format.SignatureAlgorithm) error {
	var hasher hash.Hash
	switch algorithm {
	case format.SIGNATURE_MD5:
		hasher = md5.New()
	case format.SIGNATURE_SHA1:
		hasher = sha1.New()
	case format.SIGNATURE_SHA256:
		hasher = sha256.New()
	case format.SIGNATURE_SHA512:
		hasher = sha512.New()
	default:
		return errors.Errorf("cannot sign with %s", algorithm)
	}

	hasher.Write(out.Bytes())
	out.Write(hasher.Sum(nil))
	write(out, uint32(algorithm))
	out.Write(format.SIGNATURE_MAGIC_BYTES)
	return nil
}

// bytes.Buffer writes never fail
func write(b *bytes.Buffer, v uint32) {
	_ = binary.Write(b, binary.LittleEndian, v)
}
