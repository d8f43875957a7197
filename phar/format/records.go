package format

import (
	"strings"
	"time"
	"unicode/utf8"
)

type EntryKind uint8

const (
	KIND_FILE      EntryKind = 0
	KIND_DIRECTORY EntryKind = 1
)

// EntryKey identifies an entry in the manifest table. A file and a directory
// may share a name; names compare case-insensitively.
type EntryKey struct {
	Name string
	Kind EntryKind
}

func NewEntryKey(name string, kind EntryKind) EntryKey {
	return EntryKey{Name: strings.ToLower(name), Kind: kind}
}

// Entry is one file or directory record.
type Entry struct {
	// Relative path. Directories carry no trailing slash.
	Name             string
	UncompressedSize uint32
	// Unix seconds
	Timestamp      uint32
	CompressedSize uint32
	// CRC32 of the uncompressed content as stored in the header.
	CRC      uint32
	Flags    EntryFlags
	Metadata []byte
	// Decoded (inflated) content; empty for directories.
	Content []byte
}

func (e *Entry) IsDir() bool {
	return e.Flags&ENTRY_KIND_DIR == ENTRY_KIND_DIR
}

func (e *Entry) IsFile() bool {
	return e.Flags&ENTRY_KIND_FILE == ENTRY_KIND_FILE
}

func (e *Entry) Kind() EntryKind {
	if e.IsDir() {
		return KIND_DIRECTORY
	}
	return KIND_FILE
}

func (e *Entry) Key() EntryKey {
	return NewEntryKey(e.Name, e.Kind())
}

func (e *Entry) Compression() CompressionType {
	return CompressionType(e.Flags & ENTRY_COMPRESSION_MASK)
}

// Perm returns the unix permission bits stored in the flags. Entry kind is
// kept in its own bits, so an entry written without permissions reports 0
// and callers pick their own default.
func (e *Entry) Perm() uint32 {
	return uint32(e.Flags & ENTRY_PERM_MASK)
}

func (e *Entry) ModTime() time.Time {
	return time.Unix(int64(e.Timestamp), 0)
}

// Text returns the content as a string and whether it is valid UTF-8.
func (e *Entry) Text() (string, bool) {
	return string(e.Content), utf8.Valid(e.Content)
}

// Manifest is the archive-wide header plus its entry table. The table is
// filled once by the reader and never changes afterwards.
type Manifest struct {
	Version Version
	Flags   ManifestFlags
	// nil when the archive has no alias
	Alias    *string
	Metadata []byte

	entries map[EntryKey]*Entry
	order   []*Entry
}

// NewManifest returns a manifest with an empty table sized for count entries.
func NewManifest(count uint32) *Manifest {
	return &Manifest{
		entries: make(map[EntryKey]*Entry, count),
		order:   make([]*Entry, 0, count),
	}
}

// Insert adds an entry to the table. It reports false, and leaves the table
// untouched, when an entry with the same key is already present.
func (m *Manifest) Insert(e *Entry) bool {
	key := e.Key()
	if _, exists := m.entries[key]; exists {
		return false
	}
	m.entries[key] = e
	m.order = append(m.order, e)
	return true
}

func (m *Manifest) Len() int {
	return len(m.order)
}

func (m *Manifest) IsSigned() bool {
	return m.Flags&MANIFEST_FLAG_SIGNATURE == MANIFEST_FLAG_SIGNATURE
}

// SupportsDirectories reports whether trailing-slash names denote directories.
func (m *Manifest) SupportsDirectories() bool {
	return m.Version.AtLeast(VERSION_DIRECTORIES)
}

// Get looks up name, preferring a file over a directory of the same name.
func (m *Manifest) Get(name string) (Entry, bool) {
	if e, ok := m.GetFile(name); ok {
		return e, true
	}
	return m.lookup(NewEntryKey(name, KIND_DIRECTORY))
}

// GetFile looks up a file entry only.
func (m *Manifest) GetFile(name string) (Entry, bool) {
	return m.lookup(NewEntryKey(name, KIND_FILE))
}

func (m *Manifest) lookup(key EntryKey) (Entry, bool) {
	if e, ok := m.entries[key]; ok {
		return *e, true
	}
	return Entry{}, false
}

// Entries returns copies of all entries in the order they were read.
func (m *Manifest) Entries() []Entry {
	ret := make([]Entry, 0, len(m.order))
	for _, e := range m.order {
		ret = append(ret, *e)
	}
	return ret
}

// Signature is the optional trailer following the last payload.
type Signature struct {
	Algorithm SignatureAlgorithm
	Hash      []byte
	// Offset of the first trailer byte; the signed range is [0, Offset).
	Offset int64
	// Set when the hash was recomputed and matched.
	Verified bool
}

// Archive is a fully parsed PHAR file.
type Archive struct {
	Stub     []byte
	Manifest *Manifest
	// Where the archive came from, informational only.
	SourceName string
	// nil for unsigned archives
	Signature *Signature
}

func (a *Archive) Get(name string) (Entry, bool) {
	return a.Manifest.Get(name)
}

func (a *Archive) GetFile(name string) (Entry, bool) {
	return a.Manifest.GetFile(name)
}
