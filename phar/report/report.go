// Package report builds a serializable summary of a parsed archive.
package report

import (
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/indrora/phar/phar/format"
	"github.com/pkg/errors"
)

// EntrySummary describes one entry. Content is not included; Digest is only
// set when the caller supplies a digest function.
type EntrySummary struct {
	Name             string    `cbor:"0,keyasint"`
	Directory        bool      `cbor:"1,keyasint"`
	Compression      string    `cbor:"2,keyasint"`
	UncompressedSize uint32    `cbor:"3,keyasint"`
	CompressedSize   uint32    `cbor:"4,keyasint"`
	ModTime          time.Time `cbor:"5,keyasint"`
	Perm             uint32    `cbor:"6,keyasint"`
	CRC              uint32    `cbor:"7,keyasint"`
	Metadata         []byte    `cbor:"8,keyasint,omitempty"`
	Digest           []byte    `cbor:"9,keyasint,omitempty"`
}

type SignatureSummary struct {
	Algorithm string `cbor:"algorithm"`
	Hash      []byte `cbor:"hash"`
	Verified  bool   `cbor:"verified"`
}

type ArchiveSummary struct {
	Source     string            `cbor:"source,omitempty"`
	StubLength int               `cbor:"stubLength"`
	Version    string            `cbor:"version"`
	Flags      uint32            `cbor:"flags"`
	Alias      *string           `cbor:"alias,omitempty"`
	Metadata   []byte            `cbor:"metadata,omitempty"`
	Signature  *SignatureSummary `cbor:"signature,omitempty"`
	Entries    []EntrySummary    `cbor:"entries"`
}

// DigestFunc computes a fingerprint of an entry's decoded content.
type DigestFunc func(content []byte) []byte

// Summarize describes archive. digest may be nil.
func Summarize(archive *format.Archive, digest DigestFunc) *ArchiveSummary {
	m := archive.Manifest
	summary := &ArchiveSummary{
		Source:     archive.SourceName,
		StubLength: len(archive.Stub),
		Version:    m.Version.String(),
		Flags:      uint32(m.Flags),
		Alias:      m.Alias,
		Metadata:   m.Metadata,
		Entries:    make([]EntrySummary, 0, m.Len()),
	}

	if sig := archive.Signature; sig != nil {
		summary.Signature = &SignatureSummary{
			Algorithm: sig.Algorithm.String(),
			Hash:      sig.Hash,
			Verified:  sig.Verified,
		}
	}

	for _, e := range m.Entries() {
		es := EntrySummary{
			Name:             e.Name,
			Directory:        e.IsDir(),
			Compression:      e.Compression().String(),
			UncompressedSize: e.UncompressedSize,
			CompressedSize:   e.CompressedSize,
			ModTime:          e.ModTime().UTC(),
			Perm:             e.Perm(),
			CRC:              e.CRC,
			Metadata:         e.Metadata,
		}
		if digest != nil && e.IsFile() {
			es.Digest = digest(e.Content)
		}
		summary.Entries = append(summary.Entries, es)
	}

	return summary
}

// Encode writes the summary as a single CBOR item.
func (s *ArchiveSummary) Encode(w io.Writer) error {
	if err := cbor.NewEncoder(w).Encode(s); err != nil {
		return errors.Wrap(err, "failed to encode summary")
	}
	return nil
}

func Decode(r io.Reader) (*ArchiveSummary, error) {
	s := new(ArchiveSummary)
	if err := cbor.NewDecoder(r).Decode(s); err != nil {
		return nil, errors.Wrap(err, "failed to decode summary")
	}
	return s, nil
}
